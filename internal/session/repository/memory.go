package repository

import (
	"context"
	"sync"
	"time"

	"libmanage/backend/internal/session/domain"
)

// MemoryRepository is an in-process Repository for development without a database and for tests.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]domain.Session
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]domain.Session)}
}

func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[s.ID]; ok {
		return ErrDuplicate
	}
	r.m[s.ID] = *s
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) GetEnabled(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || !s.Enabled {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) Disable(ctx context.Context, id string, at time.Time, by string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		return false, nil
	}
	s.Enabled = false
	s.UpdatedAt, s.UpdatedBy = at, by
	r.m[id] = s
	return true, nil
}

func (r *MemoryRepository) Extend(ctx context.Context, id string, expiresAt, at time.Time, by string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || !s.Enabled {
		return false, nil
	}
	if expiresAt.After(s.ExpiresAt) {
		s.ExpiresAt = expiresAt
	}
	s.UpdatedAt, s.UpdatedBy = at, by
	r.m[id] = s
	return true, nil
}

func (r *MemoryRepository) DisableAllForAccount(ctx context.Context, accountID string, at time.Time, by string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.m {
		if s.AccountID == accountID && s.Enabled {
			s.Enabled = false
			s.UpdatedAt, s.UpdatedBy = at, by
			r.m[id] = s
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DeleteAllForAccount(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.m {
		if s.AccountID == accountID {
			delete(r.m, id)
			n++
		}
	}
	return n, nil
}
