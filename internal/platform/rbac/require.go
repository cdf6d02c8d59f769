package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"libmanage/backend/internal/authn"
)

// RequireAuthenticated ensures the auth interceptor put a principal on ctx.
// Returns the principal on success; returns a gRPC Unauthenticated error otherwise.
func RequireAuthenticated(ctx context.Context) (*authn.Principal, error) {
	p, ok := authn.PrincipalFrom(ctx)
	if !ok || p.Subject == "" {
		return nil, status.Error(codes.Unauthenticated, "authenticated caller required")
	}
	return p, nil
}

// RequireAdmin ensures the caller is authenticated and holds the ADMIN role.
// Returns a gRPC error (Unauthenticated or PermissionDenied) on failure.
func RequireAdmin(ctx context.Context) (*authn.Principal, error) {
	p, err := RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, status.Error(codes.PermissionDenied, "admin role required")
	}
	return p, nil
}
