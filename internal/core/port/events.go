package port

import (
	"context"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

// EventPublisher publishes moderation and security events to the message bus.
type EventPublisher interface {
	PublishUserBanned(ctx context.Context, event domain.UserBannedEvent) error
	PublishUserUnbanned(ctx context.Context, event domain.UserUnbannedEvent) error
	PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error
	PublishAccountLockedOut(ctx context.Context, event domain.AccountLockedOutEvent) error
}
