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
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/security"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Username       *string
	ProfilePicture *string
}

// ProfileService manages a user's own account.
type ProfileService struct {
	users           port.UserRepository
	sessions        port.SessionStore
	recommendations port.RecommendationRepository
	detections      port.DetectionRepository
	hasher          *security.PasswordHasher
	events          port.EventPublisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(
	users port.UserRepository,
	sessions port.SessionStore,
	recommendations port.RecommendationRepository,
	detections port.DetectionRepository,
	hasher *security.PasswordHasher,
	events port.EventPublisher,
	logger *zap.Logger,
) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		users:           users,
		sessions:        sessions,
		recommendations: recommendations,
		detections:      detections,
		hasher:          hasher,
		events:          events,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *ProfileService) WithClock(clock func() time.Time) *ProfileService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Me returns the account behind userID without its password hash.
func (s *ProfileService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("load user", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile applies a partial profile change and returns the updated account.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*domain.User, error) {
	current, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	username := current.Username
	if update.Username != nil {
		username = strings.TrimSpace(*update.Username)
		if err := security.ValidateUsername(username).Err("username"); err != nil {
			return nil, err
		}
	}

	picture := current.ProfilePicture
	if update.ProfilePicture != nil {
		trimmed := strings.TrimSpace(*update.ProfilePicture)
		picture = &trimmed
		if trimmed == "" {
			picture = nil
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, username, picture); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrAccountExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, storeError("update profile", err)
	}

	current.Username = username
	current.ProfilePicture = picture
	return current, nil
}

// ChangePassword verifies the current password and stores a hash of the new one.
func (s *ProfileService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return domain.NewValidationError("password", "Current and new password are required")
	}
	if err := security.ValidatePassword(newPassword).Err("new_password"); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storeError("load user", err)
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.Int64("user_id", userID), zap.Error(err))
	}
	if !ok {
		return ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return storeError("update password", err)
	}
	return nil
}

// DeleteAccount removes the caller's history, sessions and account.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID int64) error {
	return purgeUser(ctx, purgeDeps{
		users:           s.users,
		sessions:        s.sessions,
		recommendations: s.recommendations,
		detections:      s.detections,
		events:          s.events,
		logger:          s.logger,
	}, domain.UserDeletedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		DeletedBy: userID,
		SelfServe: true,
		DeletedAt: s.now(),
	})
}

type purgeDeps struct {
	users           port.UserRepository
	sessions        port.SessionStore
	recommendations port.RecommendationRepository
	detections      port.DetectionRepository
	events          port.EventPublisher
	logger          *zap.Logger
}

// purgeUser deletes history rows before the account row, then revokes
// sessions and publishes the deletion.
func purgeUser(ctx context.Context, deps purgeDeps, event domain.UserDeletedEvent) error {
	if err := deps.detections.DeleteForUser(ctx, event.UserID); err != nil {
		return storeError("delete detections", err)
	}
	if err := deps.recommendations.DeleteForUser(ctx, event.UserID); err != nil {
		return storeError("delete recommendations", err)
	}
	if err := deps.users.Delete(ctx, event.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storeError("delete user", err)
	}

	if _, err := deps.sessions.DeleteForUser(ctx, event.UserID); err != nil {
		deps.logger.Warn("failed to revoke sessions of deleted user", zap.Int64("user_id", event.UserID), zap.Error(err))
	}

	if deps.events != nil {
		if err := deps.events.PublishUserDeleted(ctx, event); err != nil {
			deps.logger.Warn("failed to publish user deleted event", zap.Error(err))
		}
	}

	deps.logger.Info("account deleted",
		zap.Int64("user_id", event.UserID),
		zap.Int64("deleted_by", event.DeletedBy),
		zap.Bool("self_serve", event.SelfServe),
	)
	return nil
}
