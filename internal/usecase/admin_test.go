package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

type adminFixture struct {
	service  *AdminService
	users    *stubUserRepo
	sessions *stubSessionStore
	recs     *stubRecommendations
	dets     *stubDetections
	events   *recordingPublisher
}

func newAdminFixture(t *testing.T, users ...domain.User) *adminFixture {
	t.Helper()
	f := &adminFixture{
		users:    newStubUserRepo(users...),
		sessions: newStubSessionStore(),
		recs:     &stubRecommendations{},
		dets:     &stubDetections{},
		events:   &recordingPublisher{},
	}
	f.service = NewAdminService(f.users, f.sessions, f.recs, f.dets, f.events, zaptest.NewLogger(t)).WithClock(fixedClock)
	return f
}

func TestAdminService_TemporaryBanRevokesSessions(t *testing.T) {
	f := newAdminFixture(t, domain.User{ID: 1, IsAdmin: true}, domain.User{ID: 2})
	ctx := context.Background()
	_ = f.sessions.Save(ctx, liveSession("a", 2))
	_ = f.sessions.Save(ctx, liveSession("b", 2))
	_ = f.sessions.Save(ctx, liveSession("admin", 1))

	result, err := f.service.UpdateStatus(ctx, 1, 2, StatusCommand{Action: "ban", Reason: "spam"})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	wantUntil := testNow.Add(DefaultBanDays * 24 * time.Hour)
	if result.Ban.Kind != domain.BanTemporary || !result.Ban.Until.Equal(wantUntil) {
		t.Fatalf("expected 7 day temporary ban, got %+v", result.Ban)
	}
	if result.SessionsRevoked != 2 {
		t.Fatalf("expected 2 revoked sessions, got %d", result.SessionsRevoked)
	}
	if f.sessions.len() != 1 {
		t.Fatalf("expected only the admin session to remain, got %d", f.sessions.len())
	}
	if got := f.users.get(2).Ban; got.Kind != domain.BanTemporary || got.Reason != "spam" {
		t.Fatalf("expected stored temporary ban, got %+v", got)
	}

	if len(f.events.banned) != 1 {
		t.Fatalf("expected one banned event, got %d", len(f.events.banned))
	}
	event := f.events.banned[0]
	if event.UserID != 2 || event.BannedBy != 1 || event.Until == nil || !event.Until.Equal(wantUntil) {
		t.Fatalf("unexpected banned event %+v", event)
	}
}

func TestAdminService_PermanentBanAndUnban(t *testing.T) {
	f := newAdminFixture(t, domain.User{ID: 1, IsAdmin: true}, domain.User{ID: 2})
	ctx := context.Background()

	result, err := f.service.UpdateStatus(ctx, 1, 2, StatusCommand{Action: "permanent_ban", Reason: "fraud"})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if result.Ban.Kind != domain.BanPermanent {
		t.Fatalf("expected permanent ban, got %+v", result.Ban)
	}
	if f.events.banned[0].Until != nil {
		t.Fatal("expected permanent ban event without expiry")
	}

	if _, err := f.service.UpdateStatus(ctx, 1, 2, StatusCommand{Action: "unban"}); err != nil {
		t.Fatalf("unban returned error: %v", err)
	}
	if f.users.get(2).Ban.IsBanned() {
		t.Fatal("expected ban to be cleared")
	}
	if len(f.events.unbanned) != 1 || f.events.unbanned[0].UnbannedBy != 1 {
		t.Fatalf("unexpected unbanned events %+v", f.events.unbanned)
	}
}

func TestAdminService_UpdateStatusErrors(t *testing.T) {
	f := newAdminFixture(t, domain.User{ID: 1, IsAdmin: true})
	ctx := context.Background()

	cases := []struct {
		name   string
		target int64
		cmd    StatusCommand
		check  func(error) bool
	}{
		{"missing action", 2, StatusCommand{}, func(err error) bool {
			var vErr *ValidationError
			return errors.As(err, &vErr)
		}},
		{"unknown action", 2, StatusCommand{Action: "suspend"}, func(err error) bool { return errors.Is(err, ErrUnknownStatusAction) }},
		{"negative duration", 2, StatusCommand{Action: "ban", DurationDays: -1}, func(err error) bool {
			var vErr *ValidationError
			return errors.As(err, &vErr)
		}},
		{"self ban", 1, StatusCommand{Action: "ban"}, func(err error) bool { return errors.Is(err, ErrSelfBan) }},
		{"missing user", 42, StatusCommand{Action: "permanent_ban"}, func(err error) bool { return errors.Is(err, ErrUserNotFound) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.UpdateStatus(ctx, 1, tc.target, tc.cmd)
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestAdminService_DeleteUser(t *testing.T) {
	f := newAdminFixture(t, domain.User{ID: 1, IsAdmin: true}, domain.User{ID: 2})
	ctx := context.Background()
	_ = f.sessions.Save(ctx, liveSession("victim", 2))

	if err := f.service.DeleteUser(ctx, 1, 1); !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}

	if err := f.service.DeleteUser(ctx, 1, 2); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, err := f.users.GetByID(ctx, 2); err == nil {
		t.Fatal("expected user to be deleted")
	}
	if len(f.dets.deleted) != 1 || len(f.recs.deleted) != 1 {
		t.Fatal("expected history to be purged")
	}
	if f.sessions.len() != 0 {
		t.Fatal("expected sessions to be revoked")
	}
	if len(f.events.deleted) != 1 || f.events.deleted[0].SelfServe {
		t.Fatalf("unexpected deleted events %+v", f.events.deleted)
	}

	if err := f.service.DeleteUser(ctx, 1, 2); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestAdminService_Stats(t *testing.T) {
	f := newAdminFixture(t, domain.User{ID: 1, IsAdmin: true}, domain.User{ID: 2})
	f.dets.logs = []domain.DetectionLog{
		{ID: 1, UserID: 2, Disease: "Potato___Late_blight"},
		{ID: 2, UserID: 2, Disease: "Potato___Late_blight"},
		{ID: 3, UserID: 1, Disease: "Corn_(maize)___healthy"},
	}
	f.recs.logs = []domain.RecommendationLog{{ID: 1, UserID: 2, Crop: "Rice"}}

	stats, err := f.service.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalDetections != 3 || stats.TotalRecommendations != 1 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.DiseaseStats[0].Label != "Potato___Late_blight" || stats.DiseaseStats[0].Count != 2 {
		t.Fatalf("unexpected disease distribution %+v", stats.DiseaseStats)
	}

	f.users.err = errStoreDown
	if _, err := f.service.Stats(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAdminService_ListUsersStripsHashes(t *testing.T) {
	f := newAdminFixture(t, domain.User{ID: 1, PasswordHash: "argon2id$secret"})

	users, err := f.service.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 1 || users[0].PasswordHash != "" {
		t.Fatalf("expected hash to be stripped, got %+v", users)
	}
}

func TestAdminService_BanDurationBounds(t *testing.T) {
	cases := []struct {
		name    string
		days    int
		want    time.Time
		invalid bool
	}{
		{"default", 0, testNow.AddDate(0, 0, DefaultBanDays), false},
		{"one day", 1, testNow.AddDate(0, 0, 1), false},
		{"maximum", MaxBanDays, testNow.AddDate(0, 0, MaxBanDays), false},
		{"above maximum", MaxBanDays + 1, time.Time{}, true},
		{"overflowing duration", 200000, time.Time{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAdminFixture(t, domain.User{ID: 1, IsAdmin: true}, domain.User{ID: 2})

			result, err := f.service.UpdateStatus(context.Background(), 1, 2, StatusCommand{Action: "ban", DurationDays: tc.days})
			if tc.invalid {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.Field != "duration_days" {
					t.Fatalf("expected duration_days ValidationError, got %v", err)
				}
				if f.users.get(2).Ban.IsBanned() {
					t.Fatalf("expected no ban to be stored, got %+v", f.users.get(2).Ban)
				}
				return
			}

			if err != nil {
				t.Fatalf("UpdateStatus returned error: %v", err)
			}
			if !result.Ban.Until.Equal(tc.want) {
				t.Fatalf("expected ban until %v, got %v", tc.want, result.Ban.Until)
			}
			stored := f.users.get(2).Ban
			if decision := domain.EvaluateBan(stored, testNow); !decision.Denied() {
				t.Fatalf("expected stored ban to deny access at ban time, got %+v", decision)
			}
		})
	}
}
