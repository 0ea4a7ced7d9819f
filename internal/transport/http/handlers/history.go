package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

// HistoryHandler exposes recommendation and detection history.
type HistoryHandler struct {
	history *usecase.HistoryService
}

// NewHistoryHandler constructs HistoryHandler.
func NewHistoryHandler(history *usecase.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// RegisterRoutes binds history routes. The group must require a session.
func (h *HistoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/recommendations", h.Recommendations)
	r.GET("/detections", h.Detections)
	r.POST("/detections", h.SaveDetection)
	r.DELETE("/detections/:id", h.DeleteDetection)
	r.GET("/dashboard-data", h.Dashboard)
}

// Recommendations lists the caller's recommendations, or everyone's for administrators.
func (h *HistoryHandler) Recommendations(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	logs, err := h.history.Recommendations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": logs})
}

// Detections lists the caller's detections, or everyone's for administrators.
func (h *HistoryHandler) Detections(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	logs, err := h.history.Detections(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detections": logs})
}

// SaveDetection records a detection result for the caller.
func (h *HistoryHandler) SaveDetection(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	var req DetectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}

	entry, err := h.history.SaveDetection(c.Request.Context(), userID, usecase.DetectionInput{
		PlantName:  req.PlantName,
		Disease:    req.Disease,
		Confidence: req.Confidence,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Detection saved", "id": entry.ID})
}

// DeleteDetection removes one detection visible to the caller.
func (h *HistoryHandler) DeleteDetection(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	detectionID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.history.DeleteDetection(c.Request.Context(), userID, detectionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Detection deleted"})
}

// Dashboard summarises history for the dashboard widgets.
func (h *HistoryHandler) Dashboard(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	dash, err := h.history.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
