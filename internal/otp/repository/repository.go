package repository

import (
	"context"
	"errors"
	"time"

	"libmanage/backend/internal/otp/domain"
)

// ErrDuplicate is returned by Insert when a record already exists for (contact, purpose).
var ErrDuplicate = errors.New("otp record already exists")

// Repository defines persistence for pending one-time codes.
// Insert must enforce uniqueness of (contact, purpose) atomically. Removals are conditional
// on the row the caller saw, so a record replaced in between is left alone.
type Repository interface {
	Insert(ctx context.Context, r *domain.Record) error
	// Get returns the record, or nil if none is pending. Errors are storage failures only.
	Get(ctx context.Context, contact string, purpose domain.Purpose) (*domain.Record, error)
	// Delete removes the record and reports whether one was removed.
	Delete(ctx context.Context, contact string, purpose domain.Purpose) (bool, error)
	// DeleteIfExpired removes the record only if it expired at or before now.
	DeleteIfExpired(ctx context.Context, contact string, purpose domain.Purpose, now time.Time) (bool, error)
	// Consume removes exactly the record r (same code hash and creation time).
	Consume(ctx context.Context, r *domain.Record) (bool, error)
}

// Purger is implemented by repositories that can drop expired records in bulk.
type Purger interface {
	// PurgeExpiredBefore removes records whose expiry is earlier than cutoff.
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
