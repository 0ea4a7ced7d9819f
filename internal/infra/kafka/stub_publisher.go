package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	p.logger.Info("stub event published",
		append([]zap.Field{zap.String("event_type", eventType), zap.Time("timestamp", at.UTC())}, fields...)...,
	)
}

// PublishUserBanned logs user.banned events.
func (p *StubPublisher) PublishUserBanned(_ context.Context, event domain.UserBannedEvent) error {
	p.logEvent(EventUserBanned, event.BannedAt,
		zap.Int64("user_id", event.UserID),
		zap.Int64("banned_by", event.BannedBy),
		zap.String("kind", string(event.Kind)),
		zap.Timep("until", event.Until),
		zap.Int("sessions_revoked", event.SessionsRevoked),
	)
	return nil
}

// PublishUserUnbanned logs user.unbanned events.
func (p *StubPublisher) PublishUserUnbanned(_ context.Context, event domain.UserUnbannedEvent) error {
	p.logEvent(EventUserUnbanned, event.UnbannedAt,
		zap.Int64("user_id", event.UserID),
		zap.Int64("unbanned_by", event.UnbannedBy),
	)
	return nil
}

// PublishUserDeleted logs user.deleted events.
func (p *StubPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	p.logEvent(EventUserDeleted, event.DeletedAt,
		zap.Int64("user_id", event.UserID),
		zap.Int64("deleted_by", event.DeletedBy),
		zap.Bool("self_serve", event.SelfServe),
	)
	return nil
}

// PublishAccountLockedOut logs auth.locked_out events.
func (p *StubPublisher) PublishAccountLockedOut(_ context.Context, event domain.AccountLockedOutEvent) error {
	p.logEvent(EventAccountLockedOut, event.LockedAt,
		zap.String("identifier", event.Identifier),
		zap.String("client_ip", event.ClientIP),
		zap.Time("until", event.Until),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
