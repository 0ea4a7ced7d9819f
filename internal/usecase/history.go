package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

const dashboardRecentLimit = 5

// DetectionInput is a detection submitted for the history.
type DetectionInput struct {
	PlantName  string
	Disease    string
	Confidence float64
	ImageURL   string
}

// HistoryService serves recommendation and detection history. Administrators,
// as recorded in the user store, see every user's rows.
type HistoryService struct {
	users           port.UserRepository
	recommendations port.RecommendationRepository
	detections      port.DetectionRepository
	logger          *zap.Logger
	now             func() time.Time
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(
	users port.UserRepository,
	recommendations port.RecommendationRepository,
	detections port.DetectionRepository,
	logger *zap.Logger,
) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		users:           users,
		recommendations: recommendations,
		detections:      detections,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *HistoryService) WithClock(clock func() time.Time) *HistoryService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// scope returns an unrestricted scope for administrators and a per-user scope otherwise.
func (s *HistoryService) scope(ctx context.Context, userID int64, limit uint64) (port.HistoryScope, error) {
	isAdmin, err := s.users.IsAdmin(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return port.HistoryScope{}, ErrUnauthenticated
		}
		return port.HistoryScope{}, storeError("check admin flag", err)
	}
	if isAdmin {
		return port.HistoryScope{Limit: limit}, nil
	}
	return port.HistoryScope{UserID: &userID, Limit: limit}, nil
}

// Recommendations lists recommendation history visible to userID, newest first.
func (s *HistoryService) Recommendations(ctx context.Context, userID int64) ([]domain.RecommendationLog, error) {
	scope, err := s.scope(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	logs, err := s.recommendations.List(ctx, scope)
	if err != nil {
		return nil, storeError("list recommendations", err)
	}
	return logs, nil
}

// Detections lists detection history visible to userID, newest first.
func (s *HistoryService) Detections(ctx context.Context, userID int64) ([]domain.DetectionLog, error) {
	scope, err := s.scope(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	logs, err := s.detections.List(ctx, scope)
	if err != nil {
		return nil, storeError("list detections", err)
	}
	return logs, nil
}

// SaveDetection records a detection for userID.
func (s *HistoryService) SaveDetection(ctx context.Context, userID int64, in DetectionInput) (*domain.DetectionLog, error) {
	plant := strings.TrimSpace(in.PlantName)
	disease := strings.TrimSpace(in.Disease)
	if plant == "" || disease == "" {
		return nil, domain.NewValidationError("detection", "Missing fields")
	}
	if in.Confidence < 0 || in.Confidence > 100 {
		return nil, domain.NewValidationError("confidence", "must be between 0 and 100")
	}

	entry := domain.DetectionLog{
		UserID:     userID,
		PlantName:  plant,
		Disease:    disease,
		Confidence: in.Confidence,
		ImageURL:   strings.TrimSpace(in.ImageURL),
		CreatedAt:  s.now(),
	}
	id, err := s.detections.Create(ctx, entry)
	if err != nil {
		return nil, storeError("create detection", err)
	}
	entry.ID = id
	return &entry, nil
}

// DeleteDetection removes a detection owned by userID, or any detection for administrators.
func (s *HistoryService) DeleteDetection(ctx context.Context, userID, detectionID int64) error {
	scope, err := s.scope(ctx, userID, 0)
	if err != nil {
		return err
	}
	deleted, err := s.detections.Delete(ctx, detectionID, scope)
	if err != nil {
		return storeError("delete detection", err)
	}
	if !deleted {
		return ErrDetectionNotFound
	}
	return nil
}

// Dashboard summarises the history visible to userID.
func (s *HistoryService) Dashboard(ctx context.Context, userID int64) (*domain.Dashboard, error) {
	scope, err := s.scope(ctx, userID, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	dash := &domain.Dashboard{}
	if dash.TotalDetections, err = s.detections.Count(ctx, scope); err != nil {
		return nil, storeError("count detections", err)
	}
	if dash.TotalRecommendations, err = s.recommendations.Count(ctx, scope); err != nil {
		return nil, storeError("count recommendations", err)
	}
	if dash.DiseaseDistribution, err = s.detections.DiseaseCounts(ctx, scope); err != nil {
		return nil, storeError("disease distribution", err)
	}
	if dash.RecentDetections, err = s.detections.List(ctx, scope); err != nil {
		return nil, storeError("recent detections", err)
	}
	if dash.RecentRecommendations, err = s.recommendations.List(ctx, scope); err != nil {
		return nil, storeError("recent recommendations", err)
	}
	return dash, nil
}
