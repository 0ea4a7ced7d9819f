package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/infra/limiter"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/telemetry"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

// DefaultRateLimitMessage is the 429 error text.
const DefaultRateLimitMessage = "Too many requests. Please try again later."

// IdentifierFunc extracts the client identity used to scope a limit.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule binds a limit to a named operation.
type RateLimitRule struct {
	Operation  string
	Limit      limiter.Limit
	Identifier IdentifierFunc
	Message    string
}

// RateLimitResponse is the 429 body.
type RateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// RateLimiter adapts limiter.RateLimiter to gin.
type RateLimiter struct {
	limiter *limiter.RateLimiter
	metrics *telemetry.GuardMetrics
	logger  *zap.Logger
}

// NewRateLimiter builds the middleware helper around a shared limiter.
func NewRateLimiter(rl *limiter.RateLimiter, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{limiter: rl, logger: logger}
}

// WithMetrics attaches guard counters.
func (rl *RateLimiter) WithMetrics(metrics *telemetry.GuardMetrics) *RateLimiter {
	rl.metrics = metrics
	return rl
}

// ClientIPIdentifier scopes a limit to the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// RateLimit enforces rule on every request passing through. Disabled limits
// and requests without an identity pass untouched.
func (rl *RateLimiter) RateLimit(rule RateLimitRule) gin.HandlerFunc {
	if rule.Identifier == nil {
		rule.Identifier = ClientIPIdentifier()
	}
	if rule.Message == "" {
		rule.Message = DefaultRateLimitMessage
	}

	return func(c *gin.Context) {
		if rl == nil || rl.limiter == nil || !rule.Limit.Enabled() {
			c.Next()
			return
		}

		identity, ok := rule.Identifier(c)
		if !ok {
			c.Next()
			return
		}

		decision := rl.limiter.CheckAndRecord(rule.Operation, identity, rule.Limit)
		headers := c.Writer.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if decision.Allowed {
			c.Next()
			return
		}

		limited := &usecase.RateLimitedError{Operation: rule.Operation, RetryAfter: decision.ResetAfter}
		retry := usecase.RetrySeconds(limited.RetryAfter)
		headers.Set("Retry-After", strconv.Itoa(retry))
		rl.metrics.ObserveRateLimited(rule.Operation)
		rl.logger.Warn("rate limit exceeded",
			zap.String("path", c.Request.URL.Path),
			zap.Error(limited),
		)

		c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitResponse{
			Error:      rule.Message,
			RetryAfter: retry,
			TraceID:    GetTraceID(c),
		})
	}
}
