package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"libmanage/backend/internal/audit/domain"
)

// recordEmitter is the subset of otellog.Logger the sink needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// AuditSink forwards activity events as OTel log records. It satisfies audit.Sink.
type AuditSink struct {
	logger recordEmitter
}

// NewAuditSink returns a sink emitting through provider. A nil provider yields a sink that drops events.
func NewAuditSink(provider *sdklog.LoggerProvider) *AuditSink {
	if provider == nil {
		return &AuditSink{}
	}
	return &AuditSink{logger: provider.Logger("libmanage.audit")}
}

func newAuditSinkWithLogger(l recordEmitter) *AuditSink {
	return &AuditSink{logger: l}
}

// Create emits e. It never fails.
func (s *AuditSink) Create(ctx context.Context, e *domain.Event) error {
	if s.logger == nil || e == nil {
		return nil
	}
	var rec otellog.Record
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetEventName(string(e.Action))
	if e.Details != "" {
		rec.SetBody(otellog.StringValue(e.Details))
	}
	rec.AddAttributes(otellog.String("action", string(e.Action)))
	if e.AccountID != "" {
		rec.AddAttributes(otellog.String("account_id", e.AccountID))
	}
	if e.Email != "" {
		rec.AddAttributes(otellog.String("email", e.Email))
	}
	if e.ClientIP != "" {
		rec.AddAttributes(otellog.String("client_ip", e.ClientIP))
	}
	s.logger.Emit(ctx, rec)
	return nil
}
