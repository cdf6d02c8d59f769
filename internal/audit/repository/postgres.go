package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"libmanage/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an activity log repository backed by the activity_logs table.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists e. The event must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO activity_logs (id, account_id, email, action, details, client_ip, created_at)
		VALUES (:id, :account_id, :email, :action, :details, :client_ip, :created_at)`, e)
	return err
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*domain.Event
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, account_id, email, action, details, client_ip, created_at
		FROM activity_logs WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2`, accountID, limit)
	return out, err
}
