package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/limiter"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/logger"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/security"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/telemetry"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

// DefaultSessionTTL is the lifetime of a login session.
const DefaultSessionTTL = 7 * 24 * time.Hour

const sessionIDBytes = 32

// LoginInput carries the credentials and client metadata of a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	ClientIP  string
	UserAgent string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	User    domain.User
	Session domain.Session
	Token   string
}

// SignupInput carries a registration request.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// SignupResult is returned on a successful registration.
type SignupResult struct {
	User     domain.User
	Strength security.PasswordStrength
}

// AuthService coordinates signup, login and logout.
type AuthService struct {
	users      port.UserRepository
	sessions   port.SessionStore
	codec      *security.SessionTokenCodec
	hasher     *security.PasswordHasher
	lockout    *limiter.BruteForceProtection
	gate       *AccessGate
	events     port.EventPublisher
	metrics    *telemetry.GuardMetrics
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	sessions port.SessionStore,
	codec *security.SessionTokenCodec,
	hasher *security.PasswordHasher,
	lockout *limiter.BruteForceProtection,
	gate *AccessGate,
	events port.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		codec:      codec,
		hasher:     hasher,
		lockout:    lockout,
		gate:       gate,
		events:     events,
		sessionTTL: DefaultSessionTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithSessionTTL overrides the session lifetime.
func (s *AuthService) WithSessionTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// WithMetrics attaches guard counters.
func (s *AuthService) WithMetrics(metrics *telemetry.GuardMetrics) *AuthService {
	s.metrics = metrics
	return s
}

// Signup validates and registers a new account.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	username := strings.TrimSpace(in.Username)
	email := security.NormalizeEmail(in.Email)

	if err := security.ValidateUsername(username).Err("username"); err != nil {
		return nil, err
	}
	if err := security.ValidateEmail(email).Err("email"); err != nil {
		return nil, err
	}
	if err := security.ValidatePassword(in.Password).Err("password"); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Ban:          domain.NoBan(),
		CreatedAt:    s.now(),
	}
	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAccountExists
		}
		return nil, storeError("create user", err)
	}
	user.ID = id
	user.PasswordHash = ""

	s.logger.Info("account registered", zap.Int64("user_id", id), zap.String("email", logger.MaskEmail(email)))

	return &SignupResult{
		User:     user,
		Strength: security.EstimatePasswordStrength(in.Password, username, email),
	}, nil
}

// Login authenticates credentials and opens a session. Lockout is checked
// before the credentials and is keyed by the normalized email, so every login
// surface shares one failure count.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	identifier := security.NormalizeEmail(in.Email)
	if identifier == "" || in.Password == "" {
		return nil, domain.NewValidationError("credentials", "Missing email or password")
	}

	if locked, remaining := s.lockout.IsLockedOut(identifier); locked {
		return nil, &LockedOutError{Remaining: remaining}
	}

	user, err := s.users.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.loginFailed(ctx, identifier, in.ClientIP)
		}
		return nil, storeError("lookup user", err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	if !ok {
		return nil, s.loginFailed(ctx, identifier, in.ClientIP)
	}
	s.lockout.RecordSuccess(identifier)

	if err := s.gate.Evaluate(ctx, user); err != nil {
		s.logger.Info("login refused for banned account", zap.Int64("user_id", user.ID))
		return nil, err
	}

	s.upgradeHash(ctx, user, in.Password)

	session, token, err := s.openSession(ctx, user.ID, in.ClientIP, in.UserAgent)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: *user, Session: *session, Token: token}, nil
}

// Logout destroys the session referenced by token. Unknown or invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sessionID, err := s.ResolveToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return storeError("delete session", err)
	}
	return nil
}

// ResolveToken verifies a session cookie and returns the session id it carries.
func (s *AuthService) ResolveToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrUnauthenticated
	}
	sessionID, err := s.codec.Parse(token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return sessionID, nil
}

// PasswordStrength scores a candidate password.
func (s *AuthService) PasswordStrength(password string, userInputs ...string) security.PasswordStrength {
	return security.EstimatePasswordStrength(password, userInputs...)
}

func (s *AuthService) loginFailed(ctx context.Context, identifier, clientIP string) error {
	s.metrics.ObserveLoginFailure()
	s.logger.Info("login failed",
		zap.String("email", logger.MaskEmail(identifier)),
		zap.String("client_ip", logger.MaskIP(clientIP)),
	)

	if !s.lockout.RecordFailure(identifier) {
		return ErrInvalidCredentials
	}

	now := s.now()
	s.metrics.ObserveLockout()
	s.logger.Warn("login identifier locked out",
		zap.String("email", logger.MaskEmail(identifier)),
		zap.String("client_ip", logger.MaskIP(clientIP)),
		zap.Duration("duration", s.lockout.LockoutDuration()),
	)

	if s.events != nil {
		event := domain.AccountLockedOutEvent{
			EventID:    uuid.NewString(),
			Identifier: logger.MaskEmail(identifier),
			ClientIP:   logger.MaskIP(clientIP),
			LockedAt:   now,
			Until:      now.Add(s.lockout.LockoutDuration()),
		}
		if err := s.events.PublishAccountLockedOut(ctx, event); err != nil {
			s.logger.Warn("failed to publish lockout event", zap.Error(err))
		}
	}
	return ErrInvalidCredentials
}

func (s *AuthService) openSession(ctx context.Context, userID int64, clientIP, userAgent string) (*domain.Session, string, error) {
	sessionID, err := security.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	session := domain.Session{
		ID:        sessionID,
		UserID:    userID,
		IP:        clientIP,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, "", storeError("save session", err)
	}

	token, err := s.codec.Sign(session.ID, session.ExpiresAt)
	if err != nil {
		return nil, "", err
	}
	return &session, token, nil
}

// upgradeHash re-hashes passwords stored with legacy or weaker parameters.
func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Warn("failed to store upgraded password hash", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}
