package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/limiter"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/security"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
	redisrepo "github.com/Krishna2005-yadav/Crop-System/internal/repository/redis"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

const (
	testCookie   = "crop_session"
	testPassword = "Xk9#mQp2Lw"
)

type memUsers struct {
	mu     sync.Mutex
	users  map[int64]domain.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]domain.User{}, nextID: 10}
}

func (r *memUsers) Create(_ context.Context, user domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) IsAdmin(ctx context.Context, id int64) (bool, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

func (r *memUsers) mutate(id int64, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *memUsers) UpdateBan(_ context.Context, id int64, ban domain.BanState) error {
	return r.mutate(id, func(u *domain.User) { u.Ban = ban })
}

func (r *memUsers) ClearBan(_ context.Context, id int64) error {
	return r.mutate(id, func(u *domain.User) { u.Ban = domain.NoBan() })
}

func (r *memUsers) UpdateProfile(_ context.Context, id int64, username string, picture *string) error {
	return r.mutate(id, func(u *domain.User) {
		u.Username = username
		u.ProfilePicture = picture
	})
}

func (r *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *memUsers) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUsers) ListWithActivity(context.Context) ([]domain.UserActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]domain.UserActivity, 0, len(r.users))
	for _, u := range r.users {
		rows = append(rows, domain.UserActivity{User: u})
	}
	return rows, nil
}

func (r *memUsers) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type nopRecommendations struct{}

func (nopRecommendations) Create(context.Context, domain.RecommendationLog) (int64, error) {
	return 1, nil
}
func (nopRecommendations) List(context.Context, port.HistoryScope) ([]domain.RecommendationLog, error) {
	return nil, nil
}
func (nopRecommendations) Count(context.Context, port.HistoryScope) (int, error) { return 0, nil }
func (nopRecommendations) CropCounts(context.Context) ([]domain.LabelCount, error) {
	return nil, nil
}
func (nopRecommendations) DeleteForUser(context.Context, int64) error { return nil }

type nopDetections struct{}

func (nopDetections) Create(context.Context, domain.DetectionLog) (int64, error) { return 1, nil }
func (nopDetections) List(context.Context, port.HistoryScope) ([]domain.DetectionLog, error) {
	return nil, nil
}
func (nopDetections) Count(context.Context, port.HistoryScope) (int, error) { return 0, nil }
func (nopDetections) DiseaseCounts(context.Context, port.HistoryScope) ([]domain.LabelCount, error) {
	return nil, nil
}
func (nopDetections) Delete(context.Context, int64, port.HistoryScope) (bool, error) {
	return false, nil
}
func (nopDetections) DeleteForUser(context.Context, int64) error { return nil }

type fixedClassifier struct {
	label      string
	confidence float64
	calls      int
}

func (c *fixedClassifier) ClassifyDisease(context.Context, []byte) (string, float64, error) {
	c.calls++
	return c.label, c.confidence, nil
}

// testApp wires real services over in-memory users and a miniredis session store.
type testApp struct {
	router     *gin.Engine
	users      *memUsers
	hasher     *security.PasswordHasher
	classifier *fixedClassifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := red.NewClient(&red.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	hasher, err := security.NewPasswordHasher(security.Argon2Config{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("failed to build hasher: %v", err)
	}
	codec, err := security.NewSessionTokenCodec("0123456789abcdef0123456789abcdef", "crop-system-test")
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	users := newMemUsers()
	sessions := redisrepo.NewSessionStore(client, "test:session")
	gate := usecase.NewAccessGate(sessions, users, logger)
	lockout := limiter.NewBruteForceProtection(3, 15*time.Minute)
	auth := usecase.NewAuthService(users, sessions, codec, hasher, lockout, gate, nil, logger)
	profile := usecase.NewProfileService(users, sessions, nopRecommendations{}, nopDetections{}, hasher, nil, logger)
	admin := usecase.NewAdminService(users, sessions, nopRecommendations{}, nopDetections{}, nil, logger)
	classifier := &fixedClassifier{label: "Potato___Early_blight", confidence: 91.234}
	predictions := usecase.NewPredictionService(nil, nil, classifier, nil, nopRecommendations{}, logger)

	guard := middleware.NewAccessGuard(auth, gate, testCookie, middleware.AccessPaths{}, logger)
	authHandler := NewAuthHandler(auth, profile, SessionCookie{Name: testCookie})
	adminHandler := NewAdminHandler(admin)
	predictionHandler := NewPredictionHandler(predictions, 1<<10)

	router := gin.New()
	router.Use(middleware.EnrichContext())

	api := router.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", guard.OptionalSession(), authHandler.Me)
	api.PUT("/auth/password", guard.RequireSession(), authHandler.ChangePassword)
	adminHandler.RegisterRoutes(api.Group("/admin"), guard.RequireAdmin())

	router.POST("/login", authHandler.LoginForm)
	router.GET("/logout", authHandler.LogoutPage)
	router.GET("/check-auth", guard.OptionalSession(), authHandler.CheckAuth)
	router.POST("/predict-disease", guard.RequireSession(), predictionHandler.ClassifyDisease)
	router.POST("/admin/ban-user", guard.RequireAdmin(), adminHandler.BanUserForm)

	return &testApp{router: router, users: users, hasher: hasher, classifier: classifier}
}

func (a *testApp) addUser(t *testing.T, user domain.User) domain.User {
	t.Helper()
	hash, err := a.hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user.PasswordHash = hash
	if user.Ban.Kind == "" {
		user.Ban = domain.NoBan()
	}
	a.users.mu.Lock()
	a.users.users[user.ID] = user
	a.users.mu.Unlock()
	return user
}
