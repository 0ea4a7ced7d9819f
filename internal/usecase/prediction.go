package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
)

// PredictionService runs the crop recommender and the disease classifier.
type PredictionService struct {
	recommender     port.CropRecommender
	fallback        port.CropRecommender
	classifier      port.DiseaseClassifier
	catalog         port.DiseaseCatalog
	recommendations port.RecommendationRepository
	logger          *zap.Logger
	now             func() time.Time
}

// NewPredictionService constructs a PredictionService. fallback, when set,
// answers recommendations the primary recommender cannot.
func NewPredictionService(
	recommender port.CropRecommender,
	fallback port.CropRecommender,
	classifier port.DiseaseClassifier,
	catalog port.DiseaseCatalog,
	recommendations port.RecommendationRepository,
	logger *zap.Logger,
) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		recommender:     recommender,
		fallback:        fallback,
		classifier:      classifier,
		catalog:         catalog,
		recommendations: recommendations,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *PredictionService) WithClock(clock func() time.Time) *PredictionService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Recommend validates sample, asks the recommender for a crop and records the
// result for userID. A failed history write does not fail the recommendation.
func (s *PredictionService) Recommend(ctx context.Context, userID int64, sample domain.SoilSample) (*domain.RecommendationLog, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	crop, err := s.recommend(ctx, sample)
	if err != nil {
		return nil, err
	}

	entry := domain.RecommendationLog{
		UserID:    userID,
		Crop:      crop,
		Sample:    sample,
		CreatedAt: s.now(),
	}
	if s.recommendations != nil {
		id, err := s.recommendations.Create(ctx, entry)
		if err != nil {
			s.logger.Warn("failed to record recommendation", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			entry.ID = id
		}
	}
	return &entry, nil
}

func (s *PredictionService) recommend(ctx context.Context, sample domain.SoilSample) (string, error) {
	if s.recommender != nil {
		crop, err := s.recommender.RecommendCrop(ctx, sample)
		if err == nil {
			return crop, nil
		}
		if s.fallback == nil {
			return "", fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		s.logger.Warn("recommender failed, using fallback rules", zap.Error(err))
	}
	if s.fallback == nil {
		return "", ErrModelUnavailable
	}
	return s.fallback.RecommendCrop(ctx, sample)
}

// Classify labels a leaf image and enriches the label for display.
func (s *PredictionService) Classify(ctx context.Context, image []byte) (*domain.DiseaseClassification, error) {
	if len(image) == 0 {
		return nil, domain.NewValidationError("image", "No image uploaded")
	}
	if s.classifier == nil {
		return nil, ErrModelUnavailable
	}

	label, confidence, err := s.classifier.ClassifyDisease(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	confidence = math.Round(confidence*100) / 100

	details := domain.DiseaseDetails(label)
	if s.catalog != nil {
		details = s.catalog.Lookup(label)
	}

	return &domain.DiseaseClassification{
		Label:           label,
		Confidence:      confidence,
		ConfidenceLevel: domain.ConfidenceLevel(confidence),
		Details:         details,
	}, nil
}
