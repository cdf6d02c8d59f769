package repository

import (
	"context"
	"sync/atomic"

	"libmanage/backend/internal/maintenance/domain"
)

// MemoryStore keeps the flag in this process only.
type MemoryStore struct {
	v atomic.Pointer[domain.Status]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (*domain.Status, error) {
	cur := s.v.Load()
	if cur == nil {
		return nil, nil
	}
	out := *cur
	return &out, nil
}

func (s *MemoryStore) Set(ctx context.Context, st domain.Status) error {
	s.v.Store(&st)
	return nil
}
