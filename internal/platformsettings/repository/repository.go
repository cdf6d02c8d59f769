package repository

import (
	"context"
	"time"
)

// Setting is one platform-wide key/value pair. Values are JSON documents.
type Setting struct {
	Key       string    `db:"key"`
	ValueJSON string    `db:"value_json"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Repository reads and writes platform settings.
type Repository interface {
	// Get returns the setting for key, or nil when unset.
	Get(ctx context.Context, key string) (*Setting, error)
	// Put inserts or replaces the setting.
	Put(ctx context.Context, s *Setting) error
}
