package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"libmanage/backend/internal/otp/domain"
	"libmanage/backend/internal/otp/repository"
)

func TestPurgeOnce_LogsCount(t *testing.T) {
	repo := repository.NewMemoryRepository()
	s := NewStore(repo)
	ctx := context.Background()
	s.now = func() time.Time { return time.Now().Add(-PurgeGrace - time.Hour) }
	_ = s.Create(ctx, "old@x.com", domain.PurposeVerifyEmail, "123456", time.Minute)
	_ = s.Create(ctx, "older@x.com", domain.PurposeVerifyEmail, "123456", time.Minute)
	s.now = time.Now

	core, logs := observer.New(zap.InfoLevel)
	if n := purgeOnce(ctx, s, zap.New(core)); n != 2 {
		t.Fatalf("purgeOnce = %d, want 2", n)
	}
	if logs.FilterMessage("otp: purged expired codes").Len() != 1 {
		t.Errorf("expected one purge log entry, got %v", logs.All())
	}
	if n := purgeOnce(ctx, s, zap.New(core)); n != 0 {
		t.Errorf("second purgeOnce = %d, want 0", n)
	}
}

func TestRunPurger_StopsOnCancel(t *testing.T) {
	s := NewStore(repository.NewMemoryRepository())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunPurger(ctx, s, time.Millisecond, nil) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunPurger = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunPurger did not return after cancel")
	}
}
