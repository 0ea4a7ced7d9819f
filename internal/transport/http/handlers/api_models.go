package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/security"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	ProfilePicture *string   `json:"profile_picture"`
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
}

func newUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Email:          user.Email,
		Username:       user.Username,
		ProfilePicture: user.ProfilePicture,
		IsAdmin:        user.IsAdmin,
		CreatedAt:      user.CreatedAt,
	}
}

// MeResponse describes the caller's authentication state.
type MeResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

// SignupRequest defines the payload for account registration.
type SignupRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// SignupResponse is returned after a successful registration.
type SignupResponse struct {
	Message  string                    `json:"message"`
	User     UserResponse              `json:"user"`
	Strength security.PasswordStrength `json:"password_strength"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginResponse describes a successful login.
type LoginResponse struct {
	Message   string       `json:"message"`
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// ProfileRequest updates profile fields. Absent fields are left unchanged.
type ProfileRequest struct {
	Username       *string `json:"username"`
	ProfilePicture *string `json:"profile_picture"`
}

// PasswordChangeRequest changes the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordStrengthRequest asks for an advisory strength estimate.
type PasswordStrengthRequest struct {
	Password string `json:"password"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AdminUserResponse is a user row with ban state and activity counters.
type AdminUserResponse struct {
	UserResponse
	Status              string     `json:"status"`
	BanType             string     `json:"ban_type,omitempty"`
	BannedUntil         *time.Time `json:"banned_until,omitempty"`
	BanReason           string     `json:"ban_reason,omitempty"`
	DetectionCount      int        `json:"detection_count"`
	RecommendationCount int        `json:"recommendation_count"`
}

func newAdminUserResponse(row domain.UserActivity, now time.Time) AdminUserResponse {
	resp := AdminUserResponse{
		UserResponse:        newUserResponse(row.User),
		Status:              row.Ban.Status(now),
		DetectionCount:      row.DetectionCount,
		RecommendationCount: row.RecommendationCount,
	}
	if row.Ban.IsBanned() {
		resp.BanType = string(row.Ban.Kind)
		resp.BanReason = row.Ban.Reason
		if row.Ban.Kind == domain.BanTemporary {
			until := row.Ban.Until
			resp.BannedUntil = &until
		}
	}
	return resp
}

// StatusRequest changes an account's ban state.
type StatusRequest struct {
	Action       string `json:"action"`
	Reason       string `json:"reason"`
	DurationDays int    `json:"duration_days"`
}

// StatusResponse reports the outcome of a status change.
type StatusResponse struct {
	Message         string `json:"message"`
	UserID          int64  `json:"user_id"`
	Status          string `json:"status"`
	SessionsRevoked int    `json:"sessions_revoked"`
}

// RecommendationResponse is the result of a crop recommendation.
type RecommendationResponse struct {
	Crop    string            `json:"recommended_crop"`
	Sample  domain.SoilSample `json:"input"`
	LogID   int64             `json:"log_id,omitempty"`
	Message string            `json:"message"`
}

// DetectionRequest records a disease detection.
type DetectionRequest struct {
	PlantName  string  `json:"plant_name"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
	ImageURL   string  `json:"image_url"`
}

// HealthResponse describes the service liveness payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	StartedAt time.Time         `json:"started_at"`
	Checks    map[string]string `json:"checks,omitempty"`
}
