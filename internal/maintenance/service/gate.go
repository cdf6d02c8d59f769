package service

import (
	"context"

	"go.uber.org/zap"

	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/maintenance/domain"
	"libmanage/backend/internal/metrics"
	"libmanage/backend/internal/policy/engine"
)

// DefaultAllowlist are the paths that bypass the gate: a locked-out client can still learn
// why and an admin can still sign in.
var DefaultAllowlist = []string{
	"/auth/login",
	"/auth/refresh",
	"/auth/info",
	"/config/maintenance/status",
}

// FlagReader reports whether maintenance mode is on.
type FlagReader interface {
	IsEnabled(ctx context.Context) (bool, error)
}

// Gate decides per request whether traffic is admitted.
type Gate struct {
	flags  FlagReader
	policy engine.Evaluator
	allow  map[string]struct{}
	logger *zap.Logger
}

// NewGate returns a Gate. policy may be nil, in which case only admins pass during maintenance.
// An empty allowlist selects DefaultAllowlist.
func NewGate(flags FlagReader, policy engine.Evaluator, logger *zap.Logger, allowlist ...string) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(allowlist) == 0 {
		allowlist = DefaultAllowlist
	}
	allow := make(map[string]struct{}, len(allowlist))
	for _, p := range allowlist {
		allow[p] = struct{}{}
	}
	return &Gate{flags: flags, policy: policy, allow: allow, logger: logger}
}

// Allowlisted reports whether path bypasses the gate.
func (g *Gate) Allowlisted(path string) bool {
	_, ok := g.allow[path]
	return ok
}

// Admit returns ErrMaintenanceModeActive when the request must be turned away.
// The caller's principal, if any, is read from ctx. The flag is read fresh on every call;
// a failed read is treated as maintenance on.
func (g *Gate) Admit(ctx context.Context, method, path string) error {
	if g.Allowlisted(path) {
		return nil
	}
	enabled, err := g.flags.IsEnabled(ctx)
	if err != nil {
		g.logger.Error("maintenance: flag read failed, gating as enabled", zap.Error(err))
		enabled = true
	}
	if !enabled {
		return nil
	}

	p, authenticated := authn.PrincipalFrom(ctx)
	if g.allowed(ctx, method, path, p, authenticated) {
		return nil
	}
	metrics.MaintenanceRejections.Inc()
	return domain.ErrMaintenanceModeActive
}

func (g *Gate) allowed(ctx context.Context, method, path string, p *authn.Principal, authenticated bool) bool {
	if g.policy == nil {
		return p.IsAdmin()
	}
	in := engine.GateInput{Method: method, Path: path, Maintenance: true, Authenticated: authenticated}
	if authenticated {
		in.Roles = p.Roles.Names()
	}
	ok, err := g.policy.Allow(ctx, in)
	if err != nil {
		g.logger.Warn("maintenance: policy evaluation failed, using admin check", zap.Error(err))
		return p.IsAdmin()
	}
	return ok
}
