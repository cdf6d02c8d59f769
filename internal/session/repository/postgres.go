package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"libmanage/backend/internal/db"
	"libmanage/backend/internal/session/domain"
)

const sessionColumns = `id, account_id, enabled, expires_at, created_at, created_by, updated_at, updated_by`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a session repository backed by the sessions table.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts s; the primary key rejects a duplicate id with ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (:id, :account_id, :enabled, :expires_at, :created_at, :created_by, :updated_at, :updated_by)`, s)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
}

func (r *PostgresRepository) GetEnabled(ctx context.Context, id string) (*domain.Session, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND enabled`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*domain.Session, error) {
	var s domain.Session
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) Disable(ctx context.Context, id string, at time.Time, by string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET enabled = FALSE, updated_at = $2, updated_by = $3 WHERE id = $1`, id, at, by)
	return affectedOne(res, err)
}

func (r *PostgresRepository) Extend(ctx context.Context, id string, expiresAt, at time.Time, by string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET expires_at = GREATEST(expires_at, $2), updated_at = $3, updated_by = $4
		WHERE id = $1 AND enabled`, id, expiresAt, at, by)
	return affectedOne(res, err)
}

func (r *PostgresRepository) DisableAllForAccount(ctx context.Context, accountID string, at time.Time, by string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET enabled = FALSE, updated_at = $2, updated_by = $3
		WHERE account_id = $1 AND enabled`, accountID, at, by)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) DeleteAllForAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func affectedOne(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
