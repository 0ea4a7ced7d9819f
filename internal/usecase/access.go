package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

// Principal is the caller resolved from a live session.
type Principal struct {
	Session domain.Session
	User    domain.User
}

// AccessGate runs the session, ban and admin checks that guard every
// protected operation, in that order.
type AccessGate struct {
	sessions    port.SessionStore
	users       port.UserRepository
	reverifyBan bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewAccessGate constructs an AccessGate. Bans are re-verified on every request by default.
func NewAccessGate(sessions port.SessionStore, users port.UserRepository, logger *zap.Logger) *AccessGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessGate{
		sessions:    sessions,
		users:       users,
		reverifyBan: true,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (g *AccessGate) WithClock(clock func() time.Time) *AccessGate {
	if clock != nil {
		g.now = clock
	}
	return g
}

// WithBanReverification toggles the ban check on authenticated requests.
// Login always checks bans.
func (g *AccessGate) WithBanReverification(enabled bool) *AccessGate {
	g.reverifyBan = enabled
	return g
}

// CheckSession resolves a session id to a live session.
func (g *AccessGate) CheckSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, storeError("load session", err)
	}
	if !session.IsActive(g.now()) {
		return nil, ErrUnauthenticated
	}
	return session, nil
}

// Evaluate applies the ban policy to user. A lapsed temporary ban is cleared
// in the store and the user is let through. Concurrent logins may both clear
// the same ban; the second write is a no-op.
func (g *AccessGate) Evaluate(ctx context.Context, user *domain.User) error {
	decision := domain.EvaluateBan(user.Ban, g.now())
	switch {
	case decision.Denied():
		return NewBanError(decision)
	case decision.NeedsClearing():
		if err := g.users.ClearBan(ctx, user.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			g.logger.Warn("failed to clear expired ban", zap.Int64("user_id", user.ID), zap.Error(err))
		} else {
			g.logger.Info("cleared expired ban", zap.Int64("user_id", user.ID))
		}
		user.Ban = domain.NoBan()
	}
	return nil
}

// RequireAdmin re-reads the admin flag from the user store. Flags cached on a
// session or principal are never trusted.
func (g *AccessGate) RequireAdmin(ctx context.Context, userID int64) error {
	isAdmin, err := g.users.IsAdmin(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthenticated
		}
		return storeError("check admin flag", err)
	}
	if !isAdmin {
		return ErrAdminRequired
	}
	return nil
}

// Authorize runs the full pipeline for a request carrying sessionID.
func (g *AccessGate) Authorize(ctx context.Context, sessionID string, requireAdmin bool) (*Principal, error) {
	session, err := g.CheckSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := g.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			g.dropSession(ctx, session.ID)
			return nil, ErrUnauthenticated
		}
		return nil, storeError("load session user", err)
	}

	if g.reverifyBan {
		if err := g.Evaluate(ctx, user); err != nil {
			g.dropSession(ctx, session.ID)
			return nil, err
		}
	}

	if requireAdmin {
		if err := g.RequireAdmin(ctx, user.ID); err != nil {
			return nil, err
		}
		user.IsAdmin = true
	}

	user.PasswordHash = ""
	return &Principal{Session: *session, User: *user}, nil
}

func (g *AccessGate) dropSession(ctx context.Context, id string) {
	if err := g.sessions.Delete(ctx, id); err != nil {
		g.logger.Warn("failed to drop session", zap.Error(err))
	}
}
