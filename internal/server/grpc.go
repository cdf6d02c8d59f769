package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"libmanage/backend/internal/server/interceptors"
	sessionhandler "libmanage/backend/internal/session/handler"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// GRPCDeps holds dependencies for the gRPC surface.
type GRPCDeps struct {
	// Auth runs the access-token pipeline for protected RPCs. Required.
	Auth interceptors.Authenticator
	// Sessions backs SessionLookup. If nil, GetSession returns Unimplemented.
	Sessions sessionhandler.Lookup
	Logger   *zap.Logger
}

// publicMethods do not require a Bearer token.
var publicMethods = map[string]bool{
	healthCheckMethod:              true,
	"/grpc.health.v1.Health/Watch": true,
	"/grpc.health.v1.Health/List":  true,
}

// NewGRPCServer builds the gRPC server with tracing, telemetry and auth interceptors,
// and registers SessionLookup plus the standard health service.
// The returned health server is updated by the readiness probe.
func NewGRPCServer(deps GRPCDeps, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.TelemetryUnary(deps.Logger, map[string]bool{healthCheckMethod: true}),
			interceptors.AuthUnary(deps.Auth, publicMethods),
		),
	}
	s := grpc.NewServer(append(base, opts...)...)
	hs := health.NewServer()
	RegisterServices(s, hs, deps)
	return s, hs
}

// RegisterServices registers all gRPC services with the given registrar.
//
// Service → handler mapping:
//   - libmanage.session.v1.SessionLookup → internal/session/handler
//   - grpc.health.v1.Health              → google.golang.org/grpc/health
func RegisterServices(s grpc.ServiceRegistrar, hs healthpb.HealthServer, deps GRPCDeps) {
	sessionhandler.RegisterSessionLookupServer(s, sessionhandler.NewServer(deps.Sessions))
	healthpb.RegisterHealthServer(s, hs)
}
