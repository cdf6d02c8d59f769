// Package service implements the one-time code store and the issuer that delivers codes.
package service

import (
	"context"
	"errors"
	"time"

	"libmanage/backend/internal/metrics"
	"libmanage/backend/internal/otp"
	"libmanage/backend/internal/otp/domain"
	"libmanage/backend/internal/otp/repository"
)

// Store creates, checks and consumes one-time codes keyed by (contact, purpose).
type Store struct {
	repo repository.Repository
	now  func() time.Time
}

// NewStore returns a Store over repo.
func NewStore(repo repository.Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Create stores code for (contact, purpose) until now+ttl.
// It fails with ErrAlreadyExists while a live code is pending. A pending code that has
// already expired is replaced; the repository removes it only if it is still expired, so of
// two concurrent Creates over the same expired code exactly one succeeds.
func (s *Store) Create(ctx context.Context, contact string, purpose domain.Purpose, code string, ttl time.Duration) error {
	contact = domain.NormalizeContact(contact)
	now := s.now().UTC()
	rec := &domain.Record{
		Contact:   contact,
		Purpose:   purpose,
		CodeHash:  otp.HashCode(code),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	err := s.repo.Insert(ctx, rec)
	if !errors.Is(err, repository.ErrDuplicate) {
		return err
	}

	removed, err := s.repo.DeleteIfExpired(ctx, contact, purpose, now)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrAlreadyExists
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Verify checks code against the pending record for (contact, purpose) and consumes it.
// The record is removed on every outcome except ErrNotFound: a wrong code and an expired
// code both burn the record, so each issued code gets exactly one attempt.
func (s *Store) Verify(ctx context.Context, code, contact string, purpose domain.Purpose) error {
	err := s.verify(ctx, code, domain.NormalizeContact(contact), purpose)
	metrics.OTPVerifications.WithLabelValues(string(purpose), verifyResult(err)).Inc()
	return err
}

func (s *Store) verify(ctx context.Context, code, contact string, purpose domain.Purpose) error {
	rec, err := s.repo.Get(ctx, contact, purpose)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}

	// Consume first; a concurrent verifier that lost the delete, or a record replaced
	// since the read, sees ErrNotFound.
	removed, err := s.repo.Consume(ctx, rec)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrNotFound
	}

	if !otp.CodeEqual(code, rec.CodeHash) {
		return domain.ErrInvalid
	}
	if rec.Expired(s.now()) {
		return domain.ErrExpired
	}
	return nil
}

// Delete removes any pending code for (contact, purpose). Deleting nothing is not an error.
func (s *Store) Delete(ctx context.Context, contact string, purpose domain.Purpose) error {
	_, err := s.repo.Delete(ctx, domain.NormalizeContact(contact), purpose)
	return err
}

// PurgeGrace is how long an expired code is kept so Verify can still report ErrExpired.
const PurgeGrace = 24 * time.Hour

// PurgeExpired drops records expired for longer than PurgeGrace when the repository supports it.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	p, ok := s.repo.(repository.Purger)
	if !ok {
		return 0, nil
	}
	return p.PurgeExpiredBefore(ctx, s.now().UTC().Add(-PurgeGrace))
}

func verifyResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalid):
		return "invalid"
	case errors.Is(err, domain.ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
