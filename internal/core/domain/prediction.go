package domain

import (
	"fmt"
	"strings"
	"time"
)

// SoilSample holds the measurements submitted for a crop recommendation.
type SoilSample struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus"`
	Potassium   float64 `json:"potassium"`
	Temperature float64 `json:"temperature"`
	PH          float64 `json:"ph"`
}

// Range is an inclusive numeric bound.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Accepted measurement bounds for SoilSample fields.
var (
	NitrogenRange    = Range{Min: 0, Max: 300}
	PhosphorusRange  = Range{Min: 0, Max: 150}
	PotassiumRange   = Range{Min: 0, Max: 300}
	TemperatureRange = Range{Min: -10, Max: 50}
	PHRange          = Range{Min: 3.5, Max: 9.5}
)

// Validate checks every measurement against its accepted range.
func (s SoilSample) Validate() error {
	checks := []struct {
		field string
		value float64
		rng   Range
	}{
		{"nitrogen", s.Nitrogen, NitrogenRange},
		{"phosphorus", s.Phosphorus, PhosphorusRange},
		{"potassium", s.Potassium, PotassiumRange},
		{"temperature", s.Temperature, TemperatureRange},
		{"ph", s.PH, PHRange},
	}

	for _, c := range checks {
		if !c.rng.Contains(c.value) {
			return NewValidationError(c.field, fmt.Sprintf("must be between %g and %g", c.rng.Min, c.rng.Max))
		}
	}
	return nil
}

// CropCatalog maps recommender class indices to crop names.
var CropCatalog = map[int]string{
	1: "Rice", 2: "Maize", 3: "Chickpea", 4: "Kidneybeans", 5: "Pigeonpeas",
	6: "Mothbeans", 7: "Mungbean", 8: "Blackgram", 9: "Lentil",
	10: "Pomegranate", 11: "Banana", 12: "Mango", 13: "Grapes", 14: "Watermelon",
	15: "Muskmelon", 16: "Apple", 17: "Orange", 18: "Papaya", 19: "Coconut",
	20: "Cotton", 21: "Jute", 22: "Coffee",
}

// CropName resolves a class index, returning "Unknown" for indices outside the catalog.
func CropName(index int) string {
	if name, ok := CropCatalog[index]; ok {
		return name
	}
	return "Unknown"
}

// DiseaseInfo describes a disease class for presentation.
type DiseaseInfo struct {
	Plant     string `json:"plant"`
	Status    string `json:"status"`
	Name      string `json:"name"`
	Symptoms  string `json:"symptoms"`
	Treatment string `json:"treatment"`
}

// DiseaseClasses lists classifier labels in model output order.
var DiseaseClasses = []string{
	"Corn_(maize)___Cercospora_leaf_spot Gray_leaf_spot",
	"Corn_(maize)___Common_rust_",
	"Corn_(maize)___Northern_Leaf_Blight",
	"Corn_(maize)___healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
}

var diseaseDetails = map[string]DiseaseInfo{
	"Corn_(maize)___Cercospora_leaf_spot Gray_leaf_spot": {
		Plant:     "Corn (Maize)",
		Status:    "Diseased Leaf",
		Name:      "Gray Leaf Spot",
		Symptoms:  "Small, rectangular brown to gray lesions on leaves. Lesions run parallel to leaf veins.",
		Treatment: "Use resistant hybrids. Rotate with non-host crops. Apply fungicides if disease pressure is high.",
	},
	"Corn_(maize)___Common_rust_": {
		Plant:     "Corn (Maize)",
		Status:    "Diseased Leaf",
		Name:      "Common Rust",
		Symptoms:  "Reddish-brown pustules on leaves and stems. Pustules rupture the leaf epidermis.",
		Treatment: "Plant resistant varieties. Apply fungicide early if infection is severe. Avoid overhead watering.",
	},
	"Corn_(maize)___Northern_Leaf_Blight": {
		Plant:     "Corn (Maize)",
		Status:    "Diseased Leaf",
		Name:      "Northern Leaf Blight",
		Symptoms:  "Long, cigar-shaped grayish-green to tan lesions. Lesions may coalesce and kill entire leaves.",
		Treatment: "Plant resistant hybrids. Manage crop residue. Apply fungicides during critical growth stages.",
	},
	"Corn_(maize)___healthy": {
		Plant:     "Corn (Maize)",
		Status:    "Healthy Leaf",
		Name:      "Healthy",
		Symptoms:  "No disease symptoms observed. Leaves are vibrant green and intact.",
		Treatment: "Continue good agricultural practices. Monitor for future threats.",
	},
	"Potato___Early_blight": {
		Plant:     "Potato",
		Status:    "Diseased Leaf",
		Name:      "Early Blight",
		Symptoms:  "Dark brown spots with concentric rings (target spots) on older leaves. Leaves may yellow and die.",
		Treatment: "Apply fungicides (chlorothalonil, mancozeb). Improve air circulation. Rotate crops.",
	},
	"Potato___Late_blight": {
		Plant:     "Potato",
		Status:    "Diseased Leaf",
		Name:      "Late Blight",
		Symptoms:  "Water-soaked lesions that turn brown/black. White fungal growth on leaf undersides in humid weather.",
		Treatment: "Destroy infected plants immediately. Apply fungicides (metalaxyl, mefenoxam). Avoid wet foliage.",
	},
	"Potato___healthy": {
		Plant:     "Potato",
		Status:    "Healthy Leaf",
		Name:      "Healthy",
		Symptoms:  "No disease symptoms observed. Plant appears vigorous.",
		Treatment: "Maintain regular watering and fertilization schedule.",
	},
}

// DiseaseDetails returns presentation details for a classifier label. Unknown
// labels get a generic entry.
func DiseaseDetails(label string) DiseaseInfo {
	if info, ok := diseaseDetails[label]; ok {
		return info
	}
	return DiseaseInfo{
		Plant:     "Unknown",
		Status:    "Unknown",
		Name:      strings.ReplaceAll(label, "_", " "),
		Symptoms:  "No specific info available.",
		Treatment: "Consult an expert.",
	}
}

// ConfidenceLevel buckets a 0..100 confidence score.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 80:
		return "high"
	case confidence >= 60:
		return "medium"
	default:
		return "low"
	}
}

// DiseaseClassification is the classifier output enriched for display.
type DiseaseClassification struct {
	Label           string             `json:"prediction"`
	Confidence      float64            `json:"confidence"`
	ConfidenceLevel string             `json:"confidence_level"`
	Details         DiseaseInfo        `json:"disease_details"`
	Probabilities   map[string]float64 `json:"all_probabilities,omitempty"`
}

// RecommendationLog is a persisted crop recommendation.
type RecommendationLog struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Crop      string     `json:"crop"`
	Sample    SoilSample `json:"sample"`
	CreatedAt time.Time  `json:"created_at"`
}

// DetectionLog is a persisted disease detection.
type DetectionLog struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	PlantName  string    `json:"plant_name"`
	Disease    string    `json:"disease"`
	Confidence float64   `json:"confidence"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LabelCount is a label with its occurrence count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Dashboard summarises a user's activity.
type Dashboard struct {
	TotalDetections       int                 `json:"total_detections"`
	TotalRecommendations  int                 `json:"total_recommendations"`
	DiseaseDistribution   []LabelCount        `json:"disease_distribution"`
	RecentDetections      []DetectionLog      `json:"recent_detections"`
	RecentRecommendations []RecommendationLog `json:"recent_recommendations"`
}

// AdminStats summarises platform-wide activity.
type AdminStats struct {
	TotalUsers           int          `json:"total_users"`
	TotalDetections      int          `json:"total_detections"`
	TotalRecommendations int          `json:"total_recommendations"`
	DiseaseStats         []LabelCount `json:"disease_stats"`
	CropStats            []LabelCount `json:"crop_stats"`
}
