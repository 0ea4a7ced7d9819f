package interceptors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// GRPCMetricsOptions controls construction of gRPC metrics collectors.
type GRPCMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Subsystem  string
	Buckets    []float64
}

// GRPCMetrics wraps Prometheus collectors for unary gRPC calls.
type GRPCMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// NewGRPCMetrics constructs collectors and registers them. Collectors already
// registered under the same name are reused.
func NewGRPCMetrics(opts GRPCMetricsOptions) (*GRPCMetrics, error) {
	if opts.Namespace == "" {
		opts.Namespace = "crop"
	}
	if opts.Subsystem == "" {
		opts.Subsystem = "grpc"
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if len(opts.Buckets) == 0 {
		opts.Buckets = prometheus.DefBuckets
	}

	labels := []string{"service", "method", "code"}
	requests, err := reuseOrRegister(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      "requests_total",
		Help:      "Unary gRPC calls by service, method and status code.",
	}, labels))
	if err != nil {
		return nil, err
	}
	duration, err := reuseOrRegister(opts.Registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      "request_duration_seconds",
		Help:      "Unary gRPC call latency in seconds.",
		Buckets:   opts.Buckets,
	}, labels))
	if err != nil {
		return nil, err
	}
	inFlight, err := reuseOrRegister(opts.Registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      "in_flight_requests",
		Help:      "Unary gRPC calls currently being served.",
	}, []string{"service"}))
	if err != nil {
		return nil, err
	}

	return &GRPCMetrics{requests: requests, duration: duration, inFlight: inFlight}, nil
}

func reuseOrRegister[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		return c, fmt.Errorf("register gRPC collector: %w", err)
	}
	existing, ok := already.ExistingCollector.(C)
	if !ok {
		return c, fmt.Errorf("existing gRPC collector has unexpected type %T", already.ExistingCollector)
	}
	return existing, nil
}

// UnaryServerInterceptor returns a unary interceptor that records the metrics.
// A nil receiver yields a pass-through interceptor.
func (m *GRPCMetrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if m == nil {
			return handler(ctx, req)
		}

		service, method := splitFullMethod(info.FullMethod)
		gauge := m.inFlight.WithLabelValues(service)
		gauge.Inc()
		start := time.Now()

		resp, err := handler(ctx, req)

		gauge.Dec()
		code := status.Code(err).String()
		m.requests.WithLabelValues(service, method, code).Inc()
		m.duration.WithLabelValues(service, method, code).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// splitFullMethod turns "/pkg.Service/Method" into its two halves.
func splitFullMethod(full string) (string, string) {
	service, method, ok := strings.Cut(strings.TrimPrefix(full, "/"), "/")
	if !ok || strings.Contains(method, "/") {
		if full == "" {
			return "unknown", "unknown"
		}
		return strings.TrimPrefix(full, "/"), "unknown"
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}
