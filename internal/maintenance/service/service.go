// Package service reads and toggles maintenance mode and admits requests while it is on.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"libmanage/backend/internal/audit"
	auditdomain "libmanage/backend/internal/audit/domain"
	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/maintenance/domain"
	"libmanage/backend/internal/maintenance/repository"
	"libmanage/backend/internal/metrics"
)

// Notifier announces a change to every account.
type Notifier interface {
	BroadcastAsync(subject, body string) <-chan struct{}
}

// Service owns the maintenance flag.
type Service struct {
	store    repository.FlagStore
	audit    audit.Recorder
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	pending  sync.WaitGroup
}

// NewService returns a Service. recorder, notifier and logger may be nil.
func NewService(store repository.FlagStore, recorder audit.Recorder, notifier Notifier, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, audit: recorder, notifier: notifier, logger: logger, now: time.Now}
}

// Status reads the flag from the store. An unset flag reads as off.
func (s *Service) Status(ctx context.Context) (domain.Status, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		return domain.Status{}, err
	}
	if st == nil {
		return domain.Status{}, nil
	}
	metrics.ObserveMaintenance(st.Enabled)
	return *st, nil
}

// IsEnabled reports the current flag value.
func (s *Service) IsEnabled(ctx context.Context) (bool, error) {
	st, err := s.Status(ctx)
	return st.Enabled, err
}

// Set stores the flag as changed by the caller. Since only moves when the value changes;
// the audit event and the broadcast are skipped when nothing changed.
func (s *Service) Set(ctx context.Context, enabled bool) (domain.Status, error) {
	cur, err := s.Status(ctx)
	if err != nil {
		return domain.Status{}, err
	}
	actor := authn.ActorFrom(ctx)
	if cur.Enabled == enabled && !cur.Since.IsZero() {
		return cur, nil
	}
	next := domain.Status{Enabled: enabled, Since: s.now().UTC(), UpdatedBy: actor}
	if err := s.store.Set(ctx, next); err != nil {
		return domain.Status{}, err
	}
	metrics.ObserveMaintenance(enabled)
	s.logger.Info("maintenance: mode changed", zap.Bool("enabled", enabled), zap.String("actor", actor))

	ev := auditdomain.Event{Email: actor, Action: auditdomain.ActionMaintenanceMode, Details: stateWord(enabled)}
	if p, ok := authn.PrincipalFrom(ctx); ok {
		ev.AccountID = p.AccountID
	}
	s.audit.Record(ctx, ev)

	if s.notifier != nil {
		subject, body := notice(enabled)
		done := s.notifier.BroadcastAsync(subject, body)
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			<-done
		}()
	}
	return next, nil
}

// Wait blocks until every broadcast started by Set has finished or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Seed writes enabled as the initial value when the store holds none.
func (s *Service) Seed(ctx context.Context, enabled bool) error {
	st, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		metrics.ObserveMaintenance(st.Enabled)
		return nil
	}
	metrics.ObserveMaintenance(enabled)
	return s.store.Set(ctx, domain.Status{Enabled: enabled, Since: s.now().UTC(), UpdatedBy: authn.SystemActor})
}

func stateWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func notice(enabled bool) (string, string) {
	if enabled {
		return "Library system maintenance",
			"The library system is under maintenance. Sign-in is temporarily unavailable; we will notify you when it is back."
	}
	return "Library system is back online", "Maintenance has finished. You can sign in again."
}
