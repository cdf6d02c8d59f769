// Package devotp keeps issued verification codes in memory so a developer can read them back
// through GET /dev/otp. Only wired when OTP_RETURN_TO_CLIENT is set outside production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Store holds plain codes by (contact, purpose).
type Store interface {
	// Put stores code for (contact, purpose) until expiresAt, replacing any earlier code.
	Put(ctx context.Context, contact, purpose, code string, expiresAt time.Time)
	// Get returns the code if present and not expired.
	Get(ctx context.Context, contact, purpose string) (code string, ok bool)
}

type key struct {
	contact string
	purpose string
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[key]entry
	nowF func() time.Time
}

// NewMemoryStore returns an empty dev code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[key]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Put(ctx context.Context, contact, purpose, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key{contact, purpose}] = entry{code: code, expiresAt: expiresAt}
}

// Get drops the entry when it has expired.
func (s *MemoryStore) Get(ctx context.Context, contact, purpose string) (string, bool) {
	k := key{contact, purpose}
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, k)
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}
