package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"libmanage/backend/internal/audit/domain"
)

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec   otellog.Record
	calls int
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
	r.calls++
}

func attributes(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestNewAuditSink_NilProvider_DropsEvents(t *testing.T) {
	sink := NewAuditSink(nil)
	if err := sink.Create(context.Background(), &domain.Event{Action: domain.ActionLogin}); err != nil {
		t.Errorf("Create: %v", err)
	}
}

func TestNewAuditSink_RealProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	if err := NewAuditSink(provider).Create(context.Background(), &domain.Event{Action: domain.ActionLogout}); err != nil {
		t.Errorf("Create: %v", err)
	}
}

func TestAuditSink_AttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	sink := newAuditSinkWithLogger(cap)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err := sink.Create(context.Background(), &domain.Event{
		AccountID: "acc-1",
		Email:     "root@x.com",
		Action:    domain.ActionMaintenanceMode,
		Details:   "enabled",
		ClientIP:  "10.0.0.7",
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec := cap.rec
	if rec.Body().AsString() != "enabled" {
		t.Errorf("body = %q, want enabled", rec.Body().AsString())
	}
	if !rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), at)
	}
	want := map[string]string{
		"action": "SYSTEM_MAINTENANCE_MODE", "account_id": "acc-1", "email": "root@x.com", "client_ip": "10.0.0.7",
	}
	got := attributes(rec)
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attr %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestAuditSink_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	before := time.Now().UTC()
	_ = newAuditSinkWithLogger(cap).Create(context.Background(), &domain.Event{Action: domain.ActionLogin})
	if cap.rec.Timestamp().Before(before) {
		t.Errorf("timestamp = %v, want >= %v", cap.rec.Timestamp(), before)
	}
	if !cap.rec.Body().Empty() {
		t.Error("body should be empty without details")
	}
}

func TestAuditSink_NilEvent(t *testing.T) {
	cap := &recordCapture{}
	_ = newAuditSinkWithLogger(cap).Create(context.Background(), nil)
	if cap.calls != 0 {
		t.Error("nil event must not be emitted")
	}
}
