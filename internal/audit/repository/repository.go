package repository

import (
	"context"

	"libmanage/backend/internal/audit/domain"
)

// Repository defines persistence for activity logs.
type Repository interface {
	Create(ctx context.Context, e *domain.Event) error
	// ListByAccount returns the newest entries of accountID first.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Event, error)
}
