package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"libmanage/backend/internal/db"
	"libmanage/backend/internal/otp/domain"
)

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an OTP repository backed by the otp_codes table.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert relies on the (contact, purpose) unique constraint; a conflict is reported as ErrDuplicate.
func (r *PostgresRepository) Insert(ctx context.Context, rec *domain.Record) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO otp_codes (contact, purpose, code_hash, expires_at, created_at)
		VALUES (:contact, :purpose, :code_hash, :expires_at, :created_at)`, rec)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, contact string, purpose domain.Purpose) (*domain.Record, error) {
	var rec domain.Record
	err := r.db.GetContext(ctx, &rec, `
		SELECT contact, purpose, code_hash, expires_at, created_at
		FROM otp_codes WHERE contact = $1 AND purpose = $2`, contact, purpose)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, contact string, purpose domain.Purpose) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE contact = $1 AND purpose = $2`, contact, purpose)
	return removed(res, err)
}

func (r *PostgresRepository) DeleteIfExpired(ctx context.Context, contact string, purpose domain.Purpose, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM otp_codes WHERE contact = $1 AND purpose = $2 AND expires_at <= $3`, contact, purpose, now)
	return removed(res, err)
}

func (r *PostgresRepository) Consume(ctx context.Context, rec *domain.Record) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM otp_codes
		WHERE contact = $1 AND purpose = $2 AND code_hash = $3 AND created_at = $4`,
		rec.Contact, rec.Purpose, rec.CodeHash, rec.CreatedAt)
	return removed(res, err)
}

// PurgeExpiredBefore removes every record that expired before cutoff. Returns the number removed.
func (r *PostgresRepository) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func removed(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
