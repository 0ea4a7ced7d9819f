package middleware

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON error body used by the middleware.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, message string) ErrorResponse {
	return ErrorResponse{Error: message, TraceID: GetTraceID(c)}
}

// IsAPIRequest reports whether the request targets the JSON API.
func IsAPIRequest(c *gin.Context) bool {
	return SurfaceOf(c) == SurfaceAPI
}
