package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/infra/config"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/limiter"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/telemetry"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/handlers"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth        *usecase.AuthService
	Gate        *usecase.AccessGate
	Profile     *usecase.ProfileService
	Admin       *usecase.AdminService
	Predictions *usecase.PredictionService
	History     *usecase.HistoryService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config       *config.AppConfig
	Logger       *zap.Logger
	RateLimiter  *limiter.RateLimiter
	GuardMetrics *telemetry.GuardMetrics
	HTTPMetrics  *middleware.HTTPMetrics
	Gatherer     prometheus.Gatherer
	Services     ServiceSet
	Database     DatabaseChecker
	Cache        CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware. Protected
// routes run rate limiting, then the session and ban check, then the admin check.
func Register(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("postgres", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", middleware.MetricsAuth(cfg.Telemetry.MetricsToken), gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if deps.Services.Auth == nil {
		return r
	}

	limits := newLimitSet(deps)
	svc := deps.Services

	guard := middleware.NewAccessGuard(svc.Auth, svc.Gate, cfg.Session.CookieName, middleware.AccessPaths{
		Login: cfg.Access.LoginPath,
		Home:  cfg.Access.HomePath,
	}, deps.Logger).WithMetrics(deps.GuardMetrics)
	requireSession := guard.RequireSession()
	requireAdmin := guard.RequireAdmin()
	optionalSession := guard.OptionalSession()
	noCache := middleware.NoCache()

	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Profile, handlers.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
		Domain: cfg.Session.Domain,
	})
	adminHandler := handlers.NewAdminHandler(svc.Admin)
	predictionHandler := handlers.NewPredictionHandler(svc.Predictions, cfg.Predictor.MaxImageBytes)
	historyHandler := handlers.NewHistoryHandler(svc.History)

	// Interactive pages.
	r.GET("/", optionalSession, handlers.Page("home"))
	r.GET("/login", optionalSession, noCache, handlers.Page("login"))
	r.GET("/signup", optionalSession, noCache, handlers.Page("signup"))
	r.POST("/login", limits.rule("login"), noCache, authHandler.LoginForm)
	r.POST("/signup", limits.rule("signup"), authHandler.SignupForm)
	r.GET("/logout", noCache, authHandler.LogoutPage)
	r.GET("/check-auth", optionalSession, noCache, authHandler.CheckAuth)

	r.GET("/dashboard", requireSession, noCache, handlers.Page("dashboard"))
	r.GET("/recommend", requireSession, noCache, handlers.Page("recommend"))
	r.GET("/disease", requireSession, noCache, handlers.Page("disease"))
	r.GET("/history", requireSession, noCache, handlers.Page("history"))
	r.GET("/profile", requireSession, noCache, handlers.Page("profile"))
	r.POST("/predict", limits.rule("predict"), requireSession, predictionHandler.RecommendForm)
	r.POST("/predict-disease", limits.rule("classify"), requireSession, predictionHandler.ClassifyDisease)

	r.GET("/admin", requireAdmin, noCache, handlers.Page("admin"))
	adminForms := r.Group("/admin")
	adminForms.POST("/ban-user", limits.rule("admin_action"), requireAdmin, adminHandler.BanUserForm)
	adminForms.POST("/unban-user", limits.rule("admin_action"), requireAdmin, adminHandler.UnbanUserForm)
	adminForms.POST("/delete-user", limits.rule("admin_action"), requireAdmin, adminHandler.DeleteUserForm)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth", noCache)
		authGroup.POST("/signup", limits.rule("signup"), authHandler.Signup)
		authGroup.POST("/login", limits.rule("login"), authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", optionalSession, authHandler.Me)
		authGroup.PUT("/profile", requireSession, authHandler.UpdateProfile)
		authGroup.PUT("/password", requireSession, authHandler.ChangePassword)
		authGroup.DELETE("/account", requireSession, authHandler.DeleteAccount)
		authGroup.POST("/password-strength", authHandler.PasswordStrength)

		adminHandler.RegisterRoutes(api.Group("/admin", noCache), requireAdmin, limits.rule("admin_action"))

		api.POST("/recommendation", limits.rule("predict"), requireSession, predictionHandler.Recommend)
		historyHandler.RegisterRoutes(api.Group("", requireSession))
	}

	return r
}

// limitSet builds the per-operation rate limit middleware from configuration.
type limitSet struct {
	limiter *middleware.RateLimiter
	specs   map[string]string
	enabled bool
	logger  *zap.Logger
}

func newLimitSet(deps Dependencies) limitSet {
	rl := deps.RateLimiter
	if rl == nil {
		rl = limiter.NewRateLimiter()
	}
	return limitSet{
		limiter: middleware.NewRateLimiter(rl, deps.Logger).WithMetrics(deps.GuardMetrics),
		specs:   deps.Config.RateLimit.Specs(),
		enabled: deps.Config.RateLimit.Enabled,
		logger:  deps.Logger,
	}
}

func (s limitSet) rule(operation string) gin.HandlerFunc {
	var limit limiter.Limit
	if s.enabled {
		parsed, err := limiter.ParseLimit(s.specs[operation])
		if err != nil && s.logger != nil {
			s.logger.Warn("rate limit disabled for operation", zap.String("operation", operation), zap.Error(err))
		}
		limit = parsed
	}
	return s.limiter.RateLimit(middleware.RateLimitRule{
		Operation:  operation,
		Limit:      limit,
		Identifier: middleware.ClientIPIdentifier(),
	})
}
