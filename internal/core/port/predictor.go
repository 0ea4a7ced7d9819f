package port

import (
	"context"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

// CropRecommender maps soil measurements to a crop label.
type CropRecommender interface {
	RecommendCrop(ctx context.Context, sample domain.SoilSample) (string, error)
}

// DiseaseClassifier labels a leaf image. Confidence is on a 0..100 scale.
type DiseaseClassifier interface {
	ClassifyDisease(ctx context.Context, image []byte) (label string, confidence float64, err error)
}

// DiseaseCatalog resolves presentation details for a classifier label.
type DiseaseCatalog interface {
	Lookup(label string) domain.DiseaseInfo
}
