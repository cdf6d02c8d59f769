// Package service implements the session registry: one revocable record per issued token pair.
package service

import (
	"context"
	"errors"
	"time"

	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/session/domain"
	"libmanage/backend/internal/session/repository"
)

// Registry creates, disables, renews and looks up session records.
// Audit columns record authn.ActorFrom(ctx).
type Registry struct {
	repo repository.Repository
	now  func() time.Time
}

// NewRegistry returns a Registry over repo.
func NewRegistry(repo repository.Repository) *Registry {
	return &Registry{repo: repo, now: time.Now}
}

// Create stores an enabled session. A taken id fails with ErrIDConflict.
func (r *Registry) Create(ctx context.Context, sessionID, accountID string, expiresAt time.Time) error {
	now := r.now().UTC()
	actor := authn.ActorFrom(ctx)
	err := r.repo.Create(ctx, &domain.Session{
		ID:        sessionID,
		AccountID: accountID,
		Enabled:   true,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
		CreatedBy: actor,
		UpdatedAt: now,
		UpdatedBy: actor,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return domain.ErrIDConflict
	}
	return err
}

// Disable turns a session off. A missing id fails with ErrNotFound.
func (r *Registry) Disable(ctx context.Context, sessionID string) error {
	ok, err := r.repo.Disable(ctx, sessionID, r.now().UTC(), authn.ActorFrom(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Renew extends an enabled session to expiresAt. Missing or disabled sessions fail with ErrNotFound.
func (r *Registry) Renew(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ok, err := r.repo.Extend(ctx, sessionID, expiresAt.UTC(), r.now().UTC(), authn.ActorFrom(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// DisableAllForAccount disables every enabled session of accountID and returns how many changed.
func (r *Registry) DisableAllForAccount(ctx context.Context, accountID string) (int64, error) {
	return r.repo.DisableAllForAccount(ctx, accountID, r.now().UTC(), authn.ActorFrom(ctx))
}

// DeleteAllForAccount removes every session record of accountID. Only used when the account itself is removed.
func (r *Registry) DeleteAllForAccount(ctx context.Context, accountID string) (int64, error) {
	return r.repo.DeleteAllForAccount(ctx, accountID)
}

// FindEnabled returns the session when it exists and is enabled, nil otherwise.
func (r *Registry) FindEnabled(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	return r.repo.GetEnabled(ctx, sessionID)
}

// Get returns the session whatever its state. A missing id fails with ErrNotFound.
func (r *Registry) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := r.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}
