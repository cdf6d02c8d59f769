// Package repository stores the maintenance flag: in process, in Redis or in Postgres.
// Only the shared stores make a change visible to every instance behind a load balancer.
package repository

import (
	"context"

	"libmanage/backend/internal/maintenance/domain"
)

// FlagStore holds the current maintenance status.
type FlagStore interface {
	// Get returns the stored status, or nil when the flag was never written.
	Get(ctx context.Context) (*domain.Status, error)
	Set(ctx context.Context, s domain.Status) error
}
