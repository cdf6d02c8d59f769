package repository

import (
	"context"
	"errors"
	"time"

	"libmanage/backend/internal/session/domain"
)

// ErrDuplicate is returned by Create when the id is already stored.
var ErrDuplicate = errors.New("session already exists")

// Repository defines persistence for session records. Each mutating method is a single
// atomic statement against one record, except the *AllForAccount bulk operations.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// GetByID returns the session, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// GetEnabled returns the session only when it exists and is enabled; nil otherwise.
	GetEnabled(ctx context.Context, id string) (*domain.Session, error)
	// Disable clears the enabled flag and reports whether the record exists.
	Disable(ctx context.Context, id string, at time.Time, by string) (bool, error)
	// Extend moves expires_at forward on an enabled record and reports whether one matched.
	// The stored expiry never moves backwards.
	Extend(ctx context.Context, id string, expiresAt, at time.Time, by string) (bool, error)
	DisableAllForAccount(ctx context.Context, accountID string, at time.Time, by string) (int64, error)
	DeleteAllForAccount(ctx context.Context, accountID string) (int64, error)
}
