package port

import (
	"context"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

// SessionStore persists login sessions with expiry.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteForUser(ctx context.Context, userID int64) (int, error)
}
