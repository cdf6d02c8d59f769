package authn

import (
	"context"
	"time"

	accountdomain "libmanage/backend/internal/account/domain"
)

type contextKey struct{ name string }

var (
	principalKey = contextKey{"principal"}
	actorKey     = contextKey{"actor"}
)

// SystemActor is recorded as the actor when no caller identity is known.
const SystemActor = "system"

// Principal is the authenticated caller of one request.
type Principal struct {
	// Subject is the sub claim (the account email).
	Subject   string
	AccountID string
	SessionID string
	Roles     accountdomain.Roles
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Roles.IsAdmin()
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal set by WithPrincipal, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// WithActor overrides the actor recorded in audit columns, e.g. during login before a principal exists.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the explicit actor, else the principal subject, else SystemActor.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey).(string); ok && a != "" {
		return a
	}
	if p, ok := PrincipalFrom(ctx); ok && p.Subject != "" {
		return p.Subject
	}
	return SystemActor
}
