package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/security"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

var errStoreDown = errors.New("connection refused")

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testHasher(t *testing.T) *security.PasswordHasher {
	t.Helper()
	h, err := security.NewPasswordHasher(security.Argon2Config{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	return h
}

func testCodec(t *testing.T) *security.SessionTokenCodec {
	t.Helper()
	codec, err := security.NewSessionTokenCodec("0123456789abcdef0123456789abcdef", "crop-system-test")
	if err != nil {
		t.Fatalf("NewSessionTokenCodec returned error: %v", err)
	}
	return codec.WithClock(fixedClock)
}

type stubUserRepo struct {
	mu         sync.Mutex
	users      map[int64]domain.User
	nextID     int64
	err        error
	clearCalls int
	// adminOverride, when set, answers IsAdmin independently of the stored record.
	adminOverride map[int64]bool
}

func newStubUserRepo(users ...domain.User) *stubUserRepo {
	r := &stubUserRepo{users: map[int64]domain.User{}, nextID: 100}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return 0, repository.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) IsAdmin(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if v, ok := r.adminOverride[id]; ok {
		return v, nil
	}
	u, ok := r.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	return u.IsAdmin, nil
}

func (r *stubUserRepo) UpdateBan(_ context.Context, id int64, ban domain.BanState) error {
	return r.mutate(id, func(u *domain.User) { u.Ban = ban })
}

func (r *stubUserRepo) ClearBan(_ context.Context, id int64) error {
	r.mu.Lock()
	r.clearCalls++
	r.mu.Unlock()
	return r.mutate(id, func(u *domain.User) { u.Ban = domain.NoBan() })
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id int64, username string, picture *string) error {
	r.mu.Lock()
	for otherID, other := range r.users {
		if otherID != id && other.Username == username {
			r.mu.Unlock()
			return repository.ErrConflict
		}
	}
	r.mu.Unlock()
	return r.mutate(id, func(u *domain.User) {
		u.Username = username
		u.ProfilePicture = picture
	})
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) ListWithActivity(context.Context) ([]domain.UserActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.UserActivity, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, domain.UserActivity{User: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return len(r.users), nil
}

func (r *stubUserRepo) mutate(id int64, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *stubUserRepo) get(id int64) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	err      error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]domain.Session{}}
}

func (s *stubSessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	session, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionStore) DeleteForUser(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *stubSessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type stubRecommendations struct {
	logs    []domain.RecommendationLog
	err     error
	deleted []int64
}

func (r *stubRecommendations) Create(_ context.Context, log domain.RecommendationLog) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, log)
	return log.ID, nil
}

func (r *stubRecommendations) List(_ context.Context, scope port.HistoryScope) ([]domain.RecommendationLog, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.RecommendationLog
	for _, l := range r.logs {
		if scope.UserID == nil || *scope.UserID == l.UserID {
			out = append(out, l)
		}
	}
	if scope.Limit > 0 && uint64(len(out)) > scope.Limit {
		out = out[:scope.Limit]
	}
	return out, nil
}

func (r *stubRecommendations) Count(ctx context.Context, scope port.HistoryScope) (int, error) {
	scope.Limit = 0
	logs, err := r.List(ctx, scope)
	return len(logs), err
}

func (r *stubRecommendations) CropCounts(context.Context) ([]domain.LabelCount, error) {
	if r.err != nil {
		return nil, r.err
	}
	return countLabels(len(r.logs), func(i int) string { return r.logs[i].Crop }), nil
}

func (r *stubRecommendations) DeleteForUser(_ context.Context, userID int64) error {
	r.deleted = append(r.deleted, userID)
	kept := r.logs[:0]
	for _, l := range r.logs {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return r.err
}

type stubDetections struct {
	logs    []domain.DetectionLog
	err     error
	deleted []int64
}

func (d *stubDetections) Create(_ context.Context, log domain.DetectionLog) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	log.ID = int64(len(d.logs) + 1)
	d.logs = append(d.logs, log)
	return log.ID, nil
}

func (d *stubDetections) List(_ context.Context, scope port.HistoryScope) ([]domain.DetectionLog, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []domain.DetectionLog
	for _, l := range d.logs {
		if scope.UserID == nil || *scope.UserID == l.UserID {
			out = append(out, l)
		}
	}
	if scope.Limit > 0 && uint64(len(out)) > scope.Limit {
		out = out[:scope.Limit]
	}
	return out, nil
}

func (d *stubDetections) Count(ctx context.Context, scope port.HistoryScope) (int, error) {
	scope.Limit = 0
	logs, err := d.List(ctx, scope)
	return len(logs), err
}

func (d *stubDetections) DiseaseCounts(ctx context.Context, scope port.HistoryScope) ([]domain.LabelCount, error) {
	scope.Limit = 0
	logs, err := d.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	return countLabels(len(logs), func(i int) string { return logs[i].Disease }), nil
}

func (d *stubDetections) Delete(_ context.Context, id int64, scope port.HistoryScope) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	for i, l := range d.logs {
		if l.ID == id && (scope.UserID == nil || *scope.UserID == l.UserID) {
			d.logs = append(d.logs[:i], d.logs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (d *stubDetections) DeleteForUser(_ context.Context, userID int64) error {
	d.deleted = append(d.deleted, userID)
	return d.err
}

func countLabels(n int, label func(int) string) []domain.LabelCount {
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		counts[label(i)]++
	}
	out := make([]domain.LabelCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, domain.LabelCount{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

type recordingPublisher struct {
	mu        sync.Mutex
	banned    []domain.UserBannedEvent
	unbanned  []domain.UserUnbannedEvent
	deleted   []domain.UserDeletedEvent
	lockedOut []domain.AccountLockedOutEvent
}

func (p *recordingPublisher) PublishUserBanned(_ context.Context, e domain.UserBannedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.banned = append(p.banned, e)
	return nil
}

func (p *recordingPublisher) PublishUserUnbanned(_ context.Context, e domain.UserUnbannedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unbanned = append(p.unbanned, e)
	return nil
}

func (p *recordingPublisher) PublishUserDeleted(_ context.Context, e domain.UserDeletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, e)
	return nil
}

func (p *recordingPublisher) PublishAccountLockedOut(_ context.Context, e domain.AccountLockedOutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lockedOut = append(p.lockedOut, e)
	return nil
}

type stubRecommender struct {
	crop  string
	err   error
	calls int
}

func (r *stubRecommender) RecommendCrop(context.Context, domain.SoilSample) (string, error) {
	r.calls++
	return r.crop, r.err
}

type stubClassifier struct {
	label      string
	confidence float64
	err        error
}

func (c *stubClassifier) ClassifyDisease(context.Context, []byte) (string, float64, error) {
	return c.label, c.confidence, c.err
}
