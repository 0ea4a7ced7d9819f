package transportgrpc

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcinterceptors "github.com/Krishna2005-yadav/Crop-System/internal/transport/grpc/interceptors"
)

// ServiceName is the health service name reported for the application.
const ServiceName = "cropsys.App"

// ReadinessCheck probes one dependency.
type ReadinessCheck func(ctx context.Context) error

// ServerDependencies encapsulates what the gRPC server layer needs.
type ServerDependencies struct {
	Logger  *zap.Logger
	Metrics *grpcinterceptors.GRPCMetrics
	Tracing grpcinterceptors.TracingOptions
	Checks  map[string]ReadinessCheck
}

// NewServer builds the gRPC server with the health service and reflection
// registered. The returned reporter keeps the health status in line with
// the readiness checks.
func NewServer(deps ServerDependencies) (*grpc.Server, *HealthReporter) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := grpc.NewServer(
		grpcinterceptors.TracingServerOption(deps.Tracing),
		grpc.ChainUnaryInterceptor(
			deps.Metrics.UnaryServerInterceptor(),
			grpcinterceptors.NewLoggingInterceptor(logger).UnaryServerInterceptor(),
		),
	)

	reporter := NewHealthReporter(deps.Checks, logger)
	healthpb.RegisterHealthServer(server, reporter.server)

	// Register reflection service for tools like grpcurl.
	reflection.Register(server)

	return server, reporter
}

// HealthReporter mirrors the HTTP readiness probes onto the gRPC health service.
type HealthReporter struct {
	server *health.Server
	checks map[string]ReadinessCheck
	logger *zap.Logger
}

// NewHealthReporter constructs a reporter. Status starts as NOT_SERVING until
// the first refresh.
func NewHealthReporter(checks map[string]ReadinessCheck, logger *zap.Logger) *HealthReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := health.NewServer()
	server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{server: server, checks: checks, logger: logger}
}

// Refresh runs every check once and publishes the aggregate status.
func (h *HealthReporter) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.checks[name](checkCtx)
		cancel()
		if err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	h.server.SetServingStatus(ServiceName, status)
	h.server.SetServingStatus("", status)
	return status
}

// Run refreshes the status every interval until ctx is cancelled, then
// marks every service NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// Server exposes the underlying health server.
func (h *HealthReporter) Server() healthpb.HealthServer {
	return h.server
}
