package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/db"
)

const accountColumns = `id, email, full_name, phone, password_hash, roles, email_verified, phone_verified, status, created_at, updated_at`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an account repository backed by the accounts table.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, domain.NormalizeEmail(email))
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE phone = $1 AND phone <> '' LIMIT 1`, phone)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	if err := r.db.GetContext(ctx, &a, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a. The account must have ID set; it is not assigned here.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (:id, :email, :full_name, :phone, :password_hash, :roles, :email_verified, :phone_verified, :status, :created_at, :updated_at)`, a)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// Update writes every mutable column of a.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Account) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE accounts SET
			email = :email, full_name = :full_name, phone = :phone, password_hash = :password_hash,
			roles = :roles, email_verified = :email_verified, phone_verified = :phone_verified,
			status = :status, updated_at = :updated_at
		WHERE id = :id`, a)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) ListActiveEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.SelectContext(ctx, &emails, `SELECT email FROM accounts WHERE status = 'active' ORDER BY email`)
	return emails, err
}
