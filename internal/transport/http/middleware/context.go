package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

const (
	// TraceIDHeader is the HTTP header name for trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the context key for trace ID
	TraceIDKey = "trace_id"
	// PrincipalKey is the context key for the caller resolved by the access gate
	PrincipalKey = "principal"

	requestContextKey = "request_context"
)

// RequestContext holds request-scoped information
type RequestContext struct {
	TraceID   string
	UserID    int64
	IP        string
	UserAgent string
}

// EnrichContext adds trace ID and request context to each request
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestContext retrieves the full request context
func GetRequestContext(c *gin.Context) *RequestContext {
	if ctx, exists := c.Get(requestContextKey); exists {
		if reqCtx, ok := ctx.(*RequestContext); ok {
			return reqCtx
		}
	}
	return &RequestContext{}
}

// SetPrincipal stores the authorized caller on the context.
func SetPrincipal(c *gin.Context, principal *usecase.Principal) {
	c.Set(PrincipalKey, principal)
	GetRequestContext(c).UserID = principal.User.ID
}

// GetPrincipal returns the caller stored by the access guards.
func GetPrincipal(c *gin.Context) (*usecase.Principal, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*usecase.Principal)
	return principal, ok && principal != nil
}

// GetAuthenticatedUserID retrieves the user ID of the authorized caller.
func GetAuthenticatedUserID(c *gin.Context) (int64, bool) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return 0, false
	}
	return principal.User.ID, true
}
