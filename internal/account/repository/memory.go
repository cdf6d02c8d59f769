package repository

import (
	"context"
	"sort"
	"sync"

	"libmanage/backend/internal/account/domain"
)

// MemoryRepository is an in-process Repository for development without a database and for tests.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]domain.Account
}

// NewMemoryRepository returns an empty in-memory account repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]domain.Account)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

func (r *MemoryRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	if phone == "" {
		return nil, nil
	}
	return r.find(func(a *domain.Account) bool { return a.Phone == phone })
}

func (r *MemoryRepository) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.m {
		if match(&a) {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.m {
		if existing.Email == a.Email {
			return ErrDuplicateEmail
		}
	}
	r.m[a.ID] = *a
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.m {
		if id != a.ID && existing.Email == a.Email {
			return ErrDuplicateEmail
		}
	}
	if _, ok := r.m[a.ID]; ok {
		r.m[a.ID] = *a
	}
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[id]
	delete(r.m, id)
	return ok, nil
}

func (r *MemoryRepository) ListActiveEmails(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.m {
		if a.Status == domain.StatusActive {
			out = append(out, a.Email)
		}
	}
	sort.Strings(out)
	return out, nil
}
