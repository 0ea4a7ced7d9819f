package port

import (
	"context"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

// HistoryScope restricts history queries to one user. A nil UserID selects every user.
type HistoryScope struct {
	UserID *int64
	Limit  uint64
}

// RecommendationRepository persists crop recommendation history.
type RecommendationRepository interface {
	Create(ctx context.Context, log domain.RecommendationLog) (int64, error)
	List(ctx context.Context, scope HistoryScope) ([]domain.RecommendationLog, error)
	Count(ctx context.Context, scope HistoryScope) (int, error)
	CropCounts(ctx context.Context) ([]domain.LabelCount, error)
	DeleteForUser(ctx context.Context, userID int64) error
}

// DetectionRepository persists disease detection history.
type DetectionRepository interface {
	Create(ctx context.Context, log domain.DetectionLog) (int64, error)
	List(ctx context.Context, scope HistoryScope) ([]domain.DetectionLog, error)
	Count(ctx context.Context, scope HistoryScope) (int, error)
	DiseaseCounts(ctx context.Context, scope HistoryScope) ([]domain.LabelCount, error)
	Delete(ctx context.Context, id int64, scope HistoryScope) (bool, error)
	DeleteForUser(ctx context.Context, userID int64) error
}
