package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/config"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/database"
	kafkainfra "github.com/Krishna2005-yadav/Crop-System/internal/infra/kafka"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/limiter"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/logger"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/predictor"
	redisinfra "github.com/Krishna2005-yadav/Crop-System/internal/infra/redis"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/security"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/telemetry"
	postgresrepo "github.com/Krishna2005-yadav/Crop-System/internal/repository/postgres"
	redisrepo "github.com/Krishna2005-yadav/Crop-System/internal/repository/redis"
	transportgrpc "github.com/Krishna2005-yadav/Crop-System/internal/transport/grpc"
	grpcinterceptors "github.com/Krishna2005-yadav/Crop-System/internal/transport/grpc/interceptors"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/routes"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

const metricsNamespace = "crop"

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	producer   *kafkainfra.Producer
	tracer     *telemetry.TracerProvider
	janitor    *limiter.Janitor
	health     *transportgrpc.HealthReporter
	grpcServer *grpc.Server
	grpcAddr   string
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	cleanup := func() {
		_ = redisClient.Close()
		pool.Close()
	}

	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	codec, err := security.NewSessionTokenCodec(cfg.Session.Secret, cfg.Session.Issuer)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init session codec: %w", err)
	}

	registry := prometheus.DefaultRegisterer
	guardMetrics, err := telemetry.NewGuardMetrics(registry, metricsNamespace)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init guard metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry, Namespace: metricsNamespace})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}
	grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{Registerer: registry, Namespace: metricsNamespace})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init grpc metrics: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	sessions := redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix)

	// Initialize Kafka event publisher
	var (
		eventPublisher port.EventPublisher
		producer       *kafkainfra.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			producer = nil
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimiter := limiter.NewRateLimiter()
	lockout := limiter.NewBruteForceProtection(cfg.Lockout.MaxAttempts, cfg.Lockout.Duration)
	janitor := limiter.NewJanitor(cfg.RateLimit.SweepInterval, log).
		Register("rate_limiter", rateLimiter).
		Register("brute_force", lockout)

	gate := usecase.NewAccessGate(sessions, repos.Users, log).
		WithBanReverification(cfg.Access.ReverifyBanOnRequest)
	authService := usecase.NewAuthService(repos.Users, sessions, codec, hasher, lockout, gate, eventPublisher, log).
		WithSessionTTL(cfg.Session.TTL).
		WithMetrics(guardMetrics)
	profileService := usecase.NewProfileService(repos.Users, sessions, repos.Recommendations, repos.Detections, hasher, eventPublisher, log)
	adminService := usecase.NewAdminService(repos.Users, sessions, repos.Recommendations, repos.Detections, eventPublisher, log)
	historyService := usecase.NewHistoryService(repos.Users, repos.Recommendations, repos.Detections, log)

	catalog, err := predictor.LoadDiseaseCatalog(cfg.Predictor.CatalogPath)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("load disease catalog: %w", err)
	}
	models := predictor.NewHTTPModelClient(cfg.Predictor.RecommenderURL, cfg.Predictor.ClassifierURL, cfg.Predictor.Timeout)
	var (
		recommender port.CropRecommender = predictor.RuleRecommender{}
		fallback    port.CropRecommender
		classifier  port.DiseaseClassifier
	)
	if cfg.Predictor.RecommenderURL != "" {
		recommender, fallback = models, predictor.RuleRecommender{}
	}
	if cfg.Predictor.ClassifierURL != "" {
		classifier = models
	} else {
		log.Warn("classifier endpoint not configured, disease detection disabled")
	}
	predictionService := usecase.NewPredictionService(recommender, fallback, classifier, catalog, repos.Recommendations, log)

	grpcSrv, healthReporter := transportgrpc.NewServer(transportgrpc.ServerDependencies{
		Logger:  log,
		Metrics: grpcMetrics,
		Tracing: grpcinterceptors.TracingOptions{},
		Checks: map[string]transportgrpc.ReadinessCheck{
			"postgres": pool.Ping,
			"redis":    redisClient.HealthCheck,
		},
	})

	engine := routes.Register(routes.Dependencies{
		Config:       cfg,
		Logger:       log,
		RateLimiter:  rateLimiter,
		GuardMetrics: guardMetrics,
		HTTPMetrics:  httpMetrics,
		Gatherer:     prometheus.DefaultGatherer,
		Database:     pool,
		Cache:        redisClient,
		Services: routes.ServiceSet{
			Auth:        authService,
			Gate:        gate,
			Profile:     profileService,
			Admin:       adminService,
			Predictions: predictionService,
			History:     historyService,
		},
	})

	return &Application{
		cfg:        cfg,
		engine:     engine,
		logger:     log,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		tracer:     tracer,
		janitor:    janitor,
		health:     healthReporter,
		grpcServer: grpcSrv,
		grpcAddr:   fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port),
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.tracer != nil {
			if err := a.tracer.Shutdown(context.Background()); err != nil {
				a.logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		}
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Warn("kafka producer close failed", zap.Error(err))
			}
		}
	}()

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go a.janitor.Run(bgCtx)
	go a.health.Run(bgCtx, 15*time.Second)

	grpcErrCh := make(chan error, 1)
	if a.grpcServer != nil && a.grpcAddr != "" {
		lis, err := net.Listen("tcp", a.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		a.logger.Info("starting gRPC server", zap.String("address", a.grpcAddr))
		go func() {
			if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				a.logger.Error("gRPC server error", zap.Error(err))
				grpcErrCh <- fmt.Errorf("run grpc server: %w", err)
			}
		}()
	}
	defer func() {
		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting crop system",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-grpcErrCh:
		return err
	}
}
