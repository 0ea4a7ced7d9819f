package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one dependency.
type ReadinessCheck func(ctx context.Context) error

// HealthOption configures HealthHandler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck registers a named dependency probe for /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandler) {
		if check != nil {
			h.checks[name] = check
		}
	}
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	checks    map[string]ReadinessCheck
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{startedAt: time.Now().UTC(), checks: make(map[string]ReadinessCheck)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status reports liveness and the service start time.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Readiness runs every registered probe and reports 503 when any fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ready, checks := h.Check(c.Request.Context())
	resp := HealthResponse{Status: "ready", StartedAt: h.startedAt, Checks: checks}
	if !ready {
		resp.Status = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Check runs the probes and returns the per-dependency outcome.
func (h *HealthHandler) Check(ctx context.Context) (bool, map[string]string) {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			ready = false
			results[name] = "error: " + err.Error()
			continue
		}
		results[name] = "ok"
	}
	return ready, results
}
