package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs unary calls and turns handler panics into Internal errors.
type LoggingInterceptor struct {
	logger *zap.Logger
}

// NewLoggingInterceptor constructs a LoggingInterceptor.
func NewLoggingInterceptor(logger *zap.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingInterceptor{logger: logger}
}

// UnaryServerInterceptor returns the unary interceptor.
func (li *LoggingInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				li.logger.Error("gRPC handler panic", zap.String("method", info.FullMethod), zap.Any("panic", r))
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("latency", time.Since(start)),
			}
			switch code {
			case codes.OK:
				li.logger.Debug("gRPC request", fields...)
			case codes.Internal, codes.Unavailable, codes.Unknown:
				li.logger.Error("gRPC request failed", append(fields, zap.Error(err))...)
			default:
				li.logger.Warn("gRPC request rejected", append(fields, zap.Error(err))...)
			}
		}()

		return handler(ctx, req)
	}
}
