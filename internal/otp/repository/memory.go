package repository

import (
	"context"
	"sync"
	"time"

	"libmanage/backend/internal/otp/domain"
)

type memKey struct {
	contact string
	purpose domain.Purpose
}

// MemoryRepository is an in-process Repository for development without a database and for tests.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[memKey]domain.Record
}

// NewMemoryRepository returns an empty in-memory OTP repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[memKey]domain.Record)}
}

func (r *MemoryRepository) Insert(ctx context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{rec.Contact, rec.Purpose}
	if _, ok := r.m[k]; ok {
		return ErrDuplicate
	}
	r.m[k] = *rec
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, contact string, purpose domain.Purpose) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.m[memKey{contact, purpose}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, contact string, purpose domain.Purpose) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{contact, purpose}
	_, ok := r.m[k]
	delete(r.m, k)
	return ok, nil
}

func (r *MemoryRepository) DeleteIfExpired(ctx context.Context, contact string, purpose domain.Purpose, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{contact, purpose}
	rec, ok := r.m[k]
	if !ok || !rec.Expired(now) {
		return false, nil
	}
	delete(r.m, k)
	return true, nil
}

func (r *MemoryRepository) Consume(ctx context.Context, want *domain.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{want.Contact, want.Purpose}
	rec, ok := r.m[k]
	if !ok || rec.CodeHash != want.CodeHash || !rec.CreatedAt.Equal(want.CreatedAt) {
		return false, nil
	}
	delete(r.m, k)
	return true, nil
}

// PurgeExpiredBefore removes every record that expired before cutoff.
func (r *MemoryRepository) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, rec := range r.m {
		if rec.ExpiresAt.Before(cutoff) {
			delete(r.m, k)
			n++
		}
	}
	return n, nil
}
