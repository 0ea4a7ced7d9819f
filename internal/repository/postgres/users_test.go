package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

var userRowColumns = []string{
	"id", "username", "email", "password_hash", "profile_picture", "is_admin", "ban_kind", "banned_until", "ban_reason", "created_at",
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	createdAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	user := domain.User{Username: "grower", Email: "grower@farm.io", PasswordHash: "hash", CreatedAt: createdAt}

	mock.ExpectQuery(`INSERT INTO users \(username,email,password_hash,profile_picture,is_admin,ban_kind,created_at\) VALUES .* RETURNING id`).
		WithArgs("grower", "grower@farm.io", "hash", pgxmock.AnyArg(), false, "none", createdAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
}

func TestUserRepository_CreateConflict(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if _, err := repo.Create(context.Background(), domain.User{Email: "dup@farm.io"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserRepository_GetByEmailDecodesBan(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	createdAt := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	reason := "spam"

	mock.ExpectQuery(`SELECT id, username, email, .* FROM users WHERE email = \$1 LIMIT 1`).
		WithArgs("grower@farm.io").
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(
			int64(3), "grower", "grower@farm.io", "hash", nil, false, "temporary", &until, &reason, createdAt,
		))

	user, err := repo.GetByEmail(context.Background(), "grower@farm.io")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if user.ID != 3 || user.Ban.Kind != domain.BanTemporary || !user.Ban.Until.Equal(until) || user.Ban.Reason != "spam" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestUserRepository_GetByIDLegacySentinel(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	sentinel := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(
			int64(9), "old", "old@farm.io", "hash", nil, false, "", &sentinel, nil, time.Now(),
		))

	user, err := repo.GetByID(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if user.Ban.Kind != domain.BanPermanent {
		t.Fatalf("expected sentinel to read as permanent, got %+v", user.Ban)
	}
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(404)).WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), 404); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_IsAdmin(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT is_admin FROM users WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"is_admin"}).AddRow(true))

	admin, err := repo.IsAdmin(context.Background(), 1)
	if err != nil || !admin {
		t.Fatalf("expected admin, got %v err=%v", admin, err)
	}
}

func TestUserRepository_UpdateBanTemporary(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	until := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE users SET ban_kind = \$1, ban_reason = \$2, banned_until = \$3 WHERE id = \$4`).
		WithArgs("temporary", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateBan(context.Background(), 5, domain.TemporaryBan(until, "abuse")); err != nil {
		t.Fatalf("UpdateBan returned error: %v", err)
	}
}

func TestUserRepository_ClearBan(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE users SET ban_kind = \$1, ban_reason = \$2, banned_until = \$3 WHERE id = \$4`).
		WithArgs("none", nil, nil, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.ClearBan(context.Background(), 5); err != nil {
		t.Fatalf("ClearBan returned error: %v", err)
	}
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), 5); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_ListWithActivity(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	columns := append(append([]string{}, userRowColumns...), "detection_count", "recommendation_count")
	mock.ExpectQuery(`SELECT u\.id, .* AS recommendation_count FROM users u ORDER BY u\.created_at DESC`).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), "admin", "admin@farm.io", "h", nil, true, "none", nil, nil, time.Now(), 4, 2).
			AddRow(int64(2), "grower", "grower@farm.io", "h", nil, false, "permanent", nil, nil, time.Now(), 0, 1))

	users, err := repo.ListWithActivity(context.Background())
	if err != nil {
		t.Fatalf("ListWithActivity returned error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].DetectionCount != 4 || users[0].RecommendationCount != 2 || !users[0].IsAdmin {
		t.Fatalf("unexpected first row %+v", users[0])
	}
	if users[1].Ban.Kind != domain.BanPermanent {
		t.Fatalf("unexpected ban for second row %+v", users[1].Ban)
	}
}
