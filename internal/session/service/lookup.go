package service

import (
	"context"
	"time"

	accountdomain "libmanage/backend/internal/account/domain"
)

// AccountReader loads the owner of a session.
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
}

// LookupResult answers the session lookup used by other services.
type LookupResult struct {
	SessionID string                 `json:"sessionId"`
	Enabled   bool                   `json:"enabled"`
	ExpiresAt time.Time              `json:"expiresAt"`
	Account   *accountdomain.Summary `json:"account,omitempty"`
}

// Lookup reports liveness of a session and who owns it.
type Lookup struct {
	registry *Registry
	accounts AccountReader
}

// NewLookup returns a Lookup.
func NewLookup(registry *Registry, accounts AccountReader) *Lookup {
	return &Lookup{registry: registry, accounts: accounts}
}

// Get returns the session state and owner summary. Unknown ids fail with ErrNotFound.
// A session whose account has vanished is reported without an account summary.
func (l *Lookup) Get(ctx context.Context, sessionID string) (*LookupResult, error) {
	s, err := l.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	res := &LookupResult{SessionID: s.ID, Enabled: s.Enabled, ExpiresAt: s.ExpiresAt}
	acc, err := l.accounts.GetByID(ctx, s.AccountID)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		summary := acc.Summary()
		res.Account = &summary
	}
	return res, nil
}
