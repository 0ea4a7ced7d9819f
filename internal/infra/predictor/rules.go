package predictor

import (
	"context"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
)

// RuleRecommender is the threshold-based recommender used when no model endpoint is configured.
type RuleRecommender struct{}

// RecommendCrop applies the fixed rules in order.
func (RuleRecommender) RecommendCrop(_ context.Context, s domain.SoilSample) (string, error) {
	switch {
	case s.Nitrogen > 120 && s.PH > 6 && s.Temperature > 28:
		return "Sugarcane", nil
	case s.PH < 5.5:
		return "Rice", nil
	case s.Phosphorus > 60:
		return "Potato", nil
	default:
		return "Wheat", nil
	}
}

var _ port.CropRecommender = RuleRecommender{}
