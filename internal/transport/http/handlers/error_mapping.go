package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

var commonErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password"},
	{Err: usecase.ErrAccountExists, Status: http.StatusConflict, Message: "Email or username already exists"},
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
	{Err: usecase.ErrDetectionNotFound, Status: http.StatusNotFound, Message: "Detection not found"},
	{Err: usecase.ErrSelfDelete, Status: http.StatusBadRequest, Message: "Cannot delete your own account"},
	{Err: usecase.ErrSelfBan, Status: http.StatusBadRequest, Message: "Cannot ban your own account"},
	{Err: usecase.ErrIncorrectPassword, Status: http.StatusBadRequest, Message: "Current password is incorrect"},
	{Err: usecase.ErrUnknownStatusAction, Status: http.StatusBadRequest, Message: "Invalid action"},
	{Err: usecase.ErrModelUnavailable, Status: http.StatusServiceUnavailable, Message: "Prediction model unavailable"},
	{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable"},
}

// respondError renders a usecase error for API callers.
func respondError(c *gin.Context, err error) {
	var (
		validation *usecase.ValidationError
		forbidden  *usecase.ForbiddenError
		locked     *usecase.LockedOutError
	)

	switch {
	case errors.As(err, &validation):
		resp := NewErrorResponse(c, validation.Reason)
		resp.Field = validation.Field
		c.JSON(http.StatusBadRequest, resp)
	case errors.As(err, &locked):
		retry := usecase.RetrySeconds(locked.Remaining)
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many failed login attempts. Please try again later.",
			"retry_after": retry,
		})
	case errors.As(err, &forbidden), errors.Is(err, usecase.ErrUnauthenticated):
		denial := middleware.DenialFor(err)
		c.JSON(denial.Status, middleware.DenialBody(c, denial))
	default:
		if !errors.Is(err, usecase.ErrStoreUnavailable) && !errors.Is(err, usecase.ErrModelUnavailable) {
			_ = c.Error(err)
		}
		RespondWithMappedError(c, err, commonErrorCases, http.StatusInternalServerError, "Internal server error")
	}
}

// flashMessage renders a usecase error as an interactive notice.
func flashMessage(err error) string {
	var (
		validation *usecase.ValidationError
		forbidden  *usecase.ForbiddenError
		locked     *usecase.LockedOutError
	)

	switch {
	case errors.As(err, &validation):
		return validation.Reason
	case errors.As(err, &locked):
		return "Too many failed login attempts. Please try again in " + strconv.Itoa(usecase.RetrySeconds(locked.Remaining)) + " seconds."
	case errors.As(err, &forbidden):
		return middleware.DenialFor(err).Message
	}

	for _, cs := range commonErrorCases {
		if errors.Is(err, cs.Err) {
			return cs.Message
		}
	}
	return "Something went wrong. Please try again."
}
