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
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/telemetry"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

// Account status actions accepted by UpdateStatus.
const (
	StatusActionBan          = "ban"
	StatusActionPermanentBan = "permanent_ban"
	StatusActionUnban        = "unban"
)

// DefaultBanDays is the temporary ban length used when none is given.
const DefaultBanDays = 7

// MaxBanDays caps temporary bans at roughly a century.
const MaxBanDays = 36500

// StatusCommand changes the ban state of an account.
type StatusCommand struct {
	Action       string
	Reason       string
	DurationDays int
}

// StatusResult reports the applied ban state.
type StatusResult struct {
	UserID          int64
	Ban             domain.BanState
	SessionsRevoked int
}

// AdminService implements the admin console. Callers must have passed the
// access gate with the admin check.
type AdminService struct {
	users           port.UserRepository
	sessions        port.SessionStore
	recommendations port.RecommendationRepository
	detections      port.DetectionRepository
	events          port.EventPublisher
	diskPath        string
	logger          *zap.Logger
	now             func() time.Time
}

// NewAdminService constructs an AdminService.
func NewAdminService(
	users port.UserRepository,
	sessions port.SessionStore,
	recommendations port.RecommendationRepository,
	detections port.DetectionRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		users:           users,
		sessions:        sessions,
		recommendations: recommendations,
		detections:      detections,
		events:          events,
		diskPath:        "/",
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AdminService) WithClock(clock func() time.Time) *AdminService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// ListUsers returns every account with its activity counters.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.UserActivity, error) {
	users, err := s.users.ListWithActivity(ctx)
	if err != nil {
		return nil, storeError("list users", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// Stats aggregates platform-wide totals and label distributions.
func (s *AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	all := port.HistoryScope{}
	stats := &domain.AdminStats{}

	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, storeError("count users", err)
	}
	if stats.TotalDetections, err = s.detections.Count(ctx, all); err != nil {
		return nil, storeError("count detections", err)
	}
	if stats.TotalRecommendations, err = s.recommendations.Count(ctx, all); err != nil {
		return nil, storeError("count recommendations", err)
	}
	if stats.DiseaseStats, err = s.detections.DiseaseCounts(ctx, all); err != nil {
		return nil, storeError("disease distribution", err)
	}
	if stats.CropStats, err = s.recommendations.CropCounts(ctx); err != nil {
		return nil, storeError("crop distribution", err)
	}
	return stats, nil
}

// UpdateStatus bans or unbans target on behalf of actor. Bans revoke every
// session of the target.
func (s *AdminService) UpdateStatus(ctx context.Context, actorID, targetID int64, cmd StatusCommand) (*StatusResult, error) {
	action := strings.ToLower(strings.TrimSpace(cmd.Action))
	if action == "" {
		return nil, domain.NewValidationError("action", "Action is required")
	}

	now := s.now()
	var ban domain.BanState
	switch action {
	case StatusActionUnban:
		return s.unban(ctx, actorID, targetID, now)
	case StatusActionBan:
		days := cmd.DurationDays
		if days == 0 {
			days = DefaultBanDays
		}
		if days < 0 {
			return nil, domain.NewValidationError("duration_days", "must be positive")
		}
		if days > MaxBanDays {
			return nil, domain.NewValidationError("duration_days", "must be at most 36500 days; use a permanent ban instead")
		}
		ban = domain.TemporaryBan(now.AddDate(0, 0, days), cmd.Reason)
	case StatusActionPermanentBan:
		ban = domain.PermanentBan(cmd.Reason)
	default:
		return nil, ErrUnknownStatusAction
	}

	if actorID == targetID {
		return nil, ErrSelfBan
	}

	if err := s.users.UpdateBan(ctx, targetID, ban); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("update ban", err)
	}

	revoked, err := s.sessions.DeleteForUser(ctx, targetID)
	if err != nil {
		s.logger.Warn("failed to revoke sessions of banned user", zap.Int64("user_id", targetID), zap.Error(err))
	}

	if s.events != nil {
		event := domain.UserBannedEvent{
			EventID:         uuid.NewString(),
			UserID:          targetID,
			BannedBy:        actorID,
			Kind:            ban.Kind,
			Reason:          ban.Reason,
			BannedAt:        now,
			SessionsRevoked: revoked,
		}
		if ban.Kind == domain.BanTemporary {
			until := ban.Until
			event.Until = &until
		}
		if err := s.events.PublishUserBanned(ctx, event); err != nil {
			s.logger.Warn("failed to publish user banned event", zap.Error(err))
		}
	}

	s.logger.Info("account banned",
		zap.Int64("user_id", targetID),
		zap.Int64("banned_by", actorID),
		zap.String("kind", string(ban.Kind)),
		zap.Int("sessions_revoked", revoked),
	)
	return &StatusResult{UserID: targetID, Ban: ban, SessionsRevoked: revoked}, nil
}

func (s *AdminService) unban(ctx context.Context, actorID, targetID int64, now time.Time) (*StatusResult, error) {
	if err := s.users.ClearBan(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("clear ban", err)
	}

	if s.events != nil {
		event := domain.UserUnbannedEvent{
			EventID:    uuid.NewString(),
			UserID:     targetID,
			UnbannedBy: actorID,
			UnbannedAt: now,
		}
		if err := s.events.PublishUserUnbanned(ctx, event); err != nil {
			s.logger.Warn("failed to publish user unbanned event", zap.Error(err))
		}
	}

	s.logger.Info("account unbanned", zap.Int64("user_id", targetID), zap.Int64("unbanned_by", actorID))
	return &StatusResult{UserID: targetID, Ban: domain.NoBan()}, nil
}

// DeleteUser removes target and its history. Administrators cannot delete themselves here.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return ErrSelfDelete
	}
	return purgeUser(ctx, purgeDeps{
		users:           s.users,
		sessions:        s.sessions,
		recommendations: s.recommendations,
		detections:      s.detections,
		events:          s.events,
		logger:          s.logger,
	}, domain.UserDeletedEvent{
		EventID:   uuid.NewString(),
		UserID:    targetID,
		DeletedBy: actorID,
		DeletedAt: s.now(),
	})
}

// SystemStats samples host and process statistics.
func (s *AdminService) SystemStats(ctx context.Context) telemetry.SystemStats {
	return telemetry.CollectSystemStats(ctx, s.diskPath)
}
