package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"libmanage/backend/internal/metrics"
)

// TelemetryUnary returns a unary server interceptor that counts each RPC by method and
// status code and writes one log line per call. skipMethods are counted but not logged
// (e.g. the health check, which load balancers poll constantly).
func TelemetryUnary(logger *zap.Logger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		metrics.GRPCRequestTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", ClientIP(ctx)),
		}
		if err != nil && code != codes.NotFound {
			logger.Warn("grpc request", append(fields, zap.Error(err))...)
			return resp, err
		}
		logger.Info("grpc request", fields...)
		return resp, err
	}
}
