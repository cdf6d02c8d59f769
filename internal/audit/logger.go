// Package audit records account and platform activity. Recording is best-effort:
// sink failures are logged and never reach the caller.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"libmanage/backend/internal/audit/domain"
)

type clientIPKey struct{}

// WithClientIP returns a context carrying the caller's address for later events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFrom returns the address set by WithClientIP, or "unknown".
func ClientIPFrom(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// Sink stores or forwards one event.
type Sink interface {
	Create(ctx context.Context, e *domain.Event) error
}

// Recorder is what flows depend on to record activity.
type Recorder interface {
	Record(ctx context.Context, e domain.Event)
}

// Logger fans each event out to every sink.
type Logger struct {
	sinks  []Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewLogger returns a Logger writing to sinks. logger may be nil.
func NewLogger(logger *zap.Logger, sinks ...Sink) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{sinks: sinks, logger: logger, now: time.Now}
}

// Record fills ID, CreatedAt and ClientIP when unset and writes e to every sink.
func (l *Logger) Record(ctx context.Context, e domain.Event) {
	if l == nil || len(l.sinks) == 0 {
		return
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	if e.ClientIP == "" {
		e.ClientIP = ClientIPFrom(ctx)
	}
	for _, s := range l.sinks {
		if err := s.Create(ctx, &e); err != nil {
			l.logger.Warn("audit: failed to record event",
				zap.String("action", string(e.Action)),
				zap.String("account_id", e.AccountID),
				zap.Error(err))
		}
	}
}

// Nop is a Recorder that drops every event.
type Nop struct{}

func (Nop) Record(context.Context, domain.Event) {}
