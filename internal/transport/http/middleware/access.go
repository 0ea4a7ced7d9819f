package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/infra/telemetry"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

// Surface identifies how a denial is presented to the caller.
type Surface string

const (
	SurfaceAPI         Surface = "api"
	SurfaceInteractive Surface = "interactive"
)

// Denial reasons, shared by both surfaces.
const (
	DenialUnauthenticated = "unauthenticated"
	DenialBanned          = "banned"
	DenialAdminRequired   = "admin_required"
	DenialUnavailable     = "unavailable"
)

// SurfaceOf reports whether the request targets the JSON API or an interactive page.
func SurfaceOf(c *gin.Context) Surface {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return SurfaceAPI
	}
	return SurfaceInteractive
}

// Denial is the presentation-independent outcome of a failed access check.
type Denial struct {
	Reason    string
	Status    int
	Message   string
	Permanent bool
	Until     time.Time
	BanReason string
}

// DenialFor maps an access gate error to a denial. It is the only place the
// decision is made; surfaces differ in rendering only.
func DenialFor(err error) Denial {
	var forbidden *usecase.ForbiddenError
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		return Denial{Reason: DenialUnauthenticated, Status: http.StatusUnauthorized, Message: "Unauthorized"}
	case errors.As(err, &forbidden) && forbidden.Reason == usecase.ReasonBanned:
		return Denial{
			Reason:    DenialBanned,
			Status:    http.StatusForbidden,
			Message:   forbidden.Message,
			Permanent: forbidden.Permanent,
			Until:     forbidden.Until,
			BanReason: forbidden.BanReason,
		}
	case errors.As(err, &forbidden):
		return Denial{Reason: DenialAdminRequired, Status: http.StatusForbidden, Message: "Admin privileges required"}
	default:
		return Denial{Reason: DenialUnavailable, Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable"}
	}
}

// DenialBody is the API rendering of a denial.
func DenialBody(c *gin.Context, d Denial) gin.H {
	body := gin.H{"error": d.Message}
	switch d.Reason {
	case DenialUnauthenticated:
		body["authenticated"] = false
	case DenialBanned:
		body["banned"] = true
		body["permanent"] = d.Permanent
		if d.BanReason != "" {
			body["reason"] = d.BanReason
		}
		if !d.Permanent && !d.Until.IsZero() {
			body["banned_until"] = d.Until.UTC().Format(time.RFC3339)
		}
	}
	if traceID := GetTraceID(c); traceID != "" {
		body["trace_id"] = traceID
	}
	return body
}

// AccessPaths are the interactive redirect targets.
type AccessPaths struct {
	Login string
	Home  string
}

// TokenResolver turns a session cookie into a session id.
type TokenResolver interface {
	ResolveToken(token string) (string, error)
}

// Authorizer runs the access gate for a session id.
type Authorizer interface {
	Authorize(ctx context.Context, sessionID string, requireAdmin bool) (*usecase.Principal, error)
}

// AccessGuard exposes the access gate as gin middleware. The pipeline order
// is fixed: session, then ban, then admin.
type AccessGuard struct {
	tokens     TokenResolver
	gate       Authorizer
	cookieName string
	paths      AccessPaths
	metrics    *telemetry.GuardMetrics
	logger     *zap.Logger
}

// NewAccessGuard builds an AccessGuard reading the session from cookieName.
func NewAccessGuard(tokens TokenResolver, gate Authorizer, cookieName string, paths AccessPaths, logger *zap.Logger) *AccessGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if paths.Login == "" {
		paths.Login = "/login"
	}
	if paths.Home == "" {
		paths.Home = "/"
	}
	return &AccessGuard{
		tokens:     tokens,
		gate:       gate,
		cookieName: cookieName,
		paths:      paths,
		logger:     logger,
	}
}

// WithMetrics attaches guard counters.
func (g *AccessGuard) WithMetrics(metrics *telemetry.GuardMetrics) *AccessGuard {
	g.metrics = metrics
	return g
}

// RequireSession denies requests without a live session from an account in good standing.
func (g *AccessGuard) RequireSession() gin.HandlerFunc {
	return g.guard(false)
}

// RequireAdmin additionally requires the admin flag, re-read from the user store.
func (g *AccessGuard) RequireAdmin() gin.HandlerFunc {
	return g.guard(true)
}

// OptionalSession attaches the principal when the request carries a valid
// session and lets every request through.
func (g *AccessGuard) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, err := g.Resolve(c, false); err == nil {
			SetPrincipal(c, principal)
		}
		c.Next()
	}
}

// Resolve runs the gate for the session carried by the request.
func (g *AccessGuard) Resolve(c *gin.Context, requireAdmin bool) (*usecase.Principal, error) {
	token, err := c.Cookie(g.cookieName)
	if err != nil || token == "" {
		return nil, usecase.ErrUnauthenticated
	}
	sessionID, err := g.tokens.ResolveToken(token)
	if err != nil {
		return nil, usecase.ErrUnauthenticated
	}
	return g.gate.Authorize(c.Request.Context(), sessionID, requireAdmin)
}

func (g *AccessGuard) guard(requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := g.Resolve(c, requireAdmin)
		if err != nil {
			g.Deny(c, DenialFor(err))
			if errors.Is(err, usecase.ErrStoreUnavailable) {
				g.logger.Error("access check failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			}
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// Deny renders d for the request's surface and aborts the chain.
func (g *AccessGuard) Deny(c *gin.Context, d Denial) {
	surface := SurfaceOf(c)
	g.metrics.ObserveGateDenial(d.Reason, string(surface))

	if d.Reason == DenialUnauthenticated {
		g.clearSessionCookie(c)
	}

	if surface == SurfaceAPI {
		c.AbortWithStatusJSON(d.Status, DenialBody(c, d))
		return
	}

	switch d.Reason {
	case DenialUnauthenticated:
		RedirectWithFlash(c, g.paths.Login, FlashDanger, "Please log in to access this page.")
	case DenialBanned:
		g.clearSessionCookie(c)
		RedirectWithFlash(c, g.paths.Login, FlashDanger, d.Message)
	case DenialAdminRequired:
		RedirectWithFlash(c, g.paths.Home, FlashDanger, "Access denied. Admin privileges required.")
	default:
		c.AbortWithStatusJSON(d.Status, DenialBody(c, d))
	}
}

func (g *AccessGuard) clearSessionCookie(c *gin.Context) {
	if _, err := c.Cookie(g.cookieName); err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
