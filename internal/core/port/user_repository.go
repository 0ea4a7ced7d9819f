package port

import (
	"context"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	IsAdmin(ctx context.Context, id int64) (bool, error)
	UpdateBan(ctx context.Context, id int64, ban domain.BanState) error
	ClearBan(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id int64, username string, profilePicture *string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	ListWithActivity(ctx context.Context) ([]domain.UserActivity, error)
	Count(ctx context.Context) (int, error)
}
