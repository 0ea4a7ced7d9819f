package interceptors

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// TracingOptions customises server span creation. Zero values fall back to
// the global OpenTelemetry provider and propagator.
type TracingOptions struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
}

// TracingServerOption returns a gRPC server option that opens a span per RPC
// through the otelgrpc stats handler.
func TracingServerOption(opts TracingOptions) grpc.ServerOption {
	var options []otelgrpc.Option
	if opts.TracerProvider != nil {
		options = append(options, otelgrpc.WithTracerProvider(opts.TracerProvider))
	}
	if opts.Propagators != nil {
		options = append(options, otelgrpc.WithPropagators(opts.Propagators))
	}
	return grpc.StatsHandler(otelgrpc.NewServerHandler(options...))
}
