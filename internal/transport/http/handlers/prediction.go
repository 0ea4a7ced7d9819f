package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

// DefaultMaxImageBytes caps disease image uploads.
const DefaultMaxImageBytes int64 = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// RecommendationRequest carries a soil sample. Every field is required.
type RecommendationRequest struct {
	Nitrogen    *float64 `json:"nitrogen" form:"nitrogen"`
	Phosphorus  *float64 `json:"phosphorus" form:"phosphorus"`
	Potassium   *float64 `json:"potassium" form:"potassium"`
	Temperature *float64 `json:"temperature" form:"temperature"`
	PH          *float64 `json:"ph" form:"ph"`
}

func (r RecommendationRequest) sample() (domain.SoilSample, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"nitrogen", r.Nitrogen},
		{"phosphorus", r.Phosphorus},
		{"potassium", r.Potassium},
		{"temperature", r.Temperature},
		{"ph", r.PH},
	}
	for _, f := range fields {
		if f.value == nil {
			return domain.SoilSample{}, domain.NewValidationError(f.name, fmt.Sprintf("Missing field: %s", f.name))
		}
	}
	return domain.SoilSample{
		Nitrogen:    *r.Nitrogen,
		Phosphorus:  *r.Phosphorus,
		Potassium:   *r.Potassium,
		Temperature: *r.Temperature,
		PH:          *r.PH,
	}, nil
}

// PredictionHandler exposes crop recommendation and disease classification.
type PredictionHandler struct {
	predictions   *usecase.PredictionService
	maxImageBytes int64
}

// NewPredictionHandler constructs PredictionHandler. A non-positive maxImageBytes selects DefaultMaxImageBytes.
func NewPredictionHandler(predictions *usecase.PredictionService, maxImageBytes int64) *PredictionHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &PredictionHandler{predictions: predictions, maxImageBytes: maxImageBytes}
}

// Recommend suggests a crop for a soil sample.
func (h *PredictionHandler) Recommend(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	var req RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}
	sample, err := req.sample()
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.predictions.Recommend(c.Request.Context(), userID, sample)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecommendationResponse{
		Crop:    entry.Crop,
		Sample:  entry.Sample,
		LogID:   entry.ID,
		Message: "Recommended crop: " + entry.Crop,
	})
}

// RecommendForm handles the interactive recommendation form.
func (h *PredictionHandler) RecommendForm(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		middleware.RedirectWithFlash(c, "/login", middleware.FlashDanger, "Please log in to access this page.")
		return
	}

	var req RecommendationRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.RedirectWithFlash(c, "/recommend", middleware.FlashDanger, "Please enter numeric values for every field.")
		return
	}
	sample, err := req.sample()
	if err != nil {
		middleware.RedirectWithFlash(c, "/recommend", middleware.FlashDanger, flashMessage(err))
		return
	}

	entry, err := h.predictions.Recommend(c.Request.Context(), userID, sample)
	if err != nil {
		middleware.RedirectWithFlash(c, "/recommend", middleware.FlashDanger, flashMessage(err))
		return
	}
	middleware.RedirectWithFlash(c, "/recommend", middleware.FlashSuccess, "Recommended crop: "+entry.Crop)
}

// ClassifyDisease accepts a multipart "image" upload and returns the classifier's verdict.
func (h *PredictionHandler) ClassifyDisease(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+(1<<20))

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c, "Image too large"))
			return
		}
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "No image uploaded"))
		return
	}
	if file.Size > h.maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c, "Image too large"))
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "No image uploaded"))
		return
	}
	defer src.Close()

	image, err := io.ReadAll(io.LimitReader(src, h.maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Failed to read image"))
		return
	}
	if len(image) > 0 && !allowedImageTypes[http.DetectContentType(image)] {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid file type. Please upload a PNG or JPEG image."))
		return
	}

	result, err := h.predictions.Classify(c.Request.Context(), image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
