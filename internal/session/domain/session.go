package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no session exists for an id, or, for Renew, when it is disabled.
	ErrNotFound = errors.New("session not found")
	// ErrIDConflict is returned when a session id is already taken. It indicates an id-generation bug.
	ErrIDConflict = errors.New("session id conflict")
)

// Session is the revocable record behind an access/refresh token pair. Both tokens
// carry the session id as jti, so disabling the record invalidates both.
type Session struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Enabled   bool      `db:"enabled"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
	UpdatedAt time.Time `db:"updated_at"`
	UpdatedBy string    `db:"updated_by"`
}
