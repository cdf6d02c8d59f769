package repository

import (
	"context"
	"testing"
	"time"

	"libmanage/backend/internal/db/dbtest"
	"libmanage/backend/internal/session/domain"
)

func newSession(id, accountID string, expiresAt time.Time) *domain.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Session{
		ID:        id,
		AccountID: accountID,
		Enabled:   true,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		CreatedBy: "a@x.com",
		UpdatedAt: now,
		UpdatedBy: "a@x.com",
	}
}

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

	if err := repo.Create(ctx, newSession("s1", "acc-1", exp)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newSession("s1", "acc-1", exp)); err != ErrDuplicate {
		t.Fatalf("duplicate Create: want ErrDuplicate, got %v", err)
	}
	if err := repo.Create(ctx, newSession("s2", "acc-1", exp)); err != nil {
		t.Fatalf("Create s2: %v", err)
	}

	s, err := repo.GetEnabled(ctx, "s1")
	if err != nil || s == nil || s.AccountID != "acc-1" || !s.ExpiresAt.Equal(exp) {
		t.Fatalf("GetEnabled = %+v, %v", s, err)
	}

	later := exp.Add(time.Hour)
	ok, err := repo.Extend(ctx, "s1", later, time.Now().UTC(), "a@x.com")
	if err != nil || !ok {
		t.Fatalf("Extend = %v, %v", ok, err)
	}
	ok, _ = repo.Extend(ctx, "s1", exp, time.Now().UTC(), "a@x.com")
	if !ok {
		t.Fatal("Extend to an earlier time should still match the record")
	}
	s, _ = repo.GetByID(ctx, "s1")
	if !s.ExpiresAt.Equal(later) {
		t.Errorf("ExpiresAt = %v, want %v (never moves backwards)", s.ExpiresAt, later)
	}

	ok, err = repo.Disable(ctx, "s1", time.Now().UTC(), "a@x.com")
	if err != nil || !ok {
		t.Fatalf("Disable = %v, %v", ok, err)
	}
	if s, _ := repo.GetEnabled(ctx, "s1"); s != nil {
		t.Fatal("GetEnabled should not return a disabled session")
	}
	if s, _ := repo.GetByID(ctx, "s1"); s == nil || s.Enabled {
		t.Fatalf("GetByID after Disable = %+v", s)
	}
	if ok, _ := repo.Extend(ctx, "s1", later, time.Now().UTC(), "x"); ok {
		t.Fatal("Extend should not match a disabled session")
	}
	if ok, _ := repo.Disable(ctx, "missing", time.Now().UTC(), "x"); ok {
		t.Fatal("Disable should report a missing session")
	}

	n, err := repo.DisableAllForAccount(ctx, "acc-1", time.Now().UTC(), "admin")
	if err != nil || n != 1 {
		t.Fatalf("DisableAllForAccount = %d, %v; want 1", n, err)
	}
	n, err = repo.DeleteAllForAccount(ctx, "acc-1")
	if err != nil || n != 2 {
		t.Fatalf("DeleteAllForAccount = %d, %v; want 2", n, err)
	}
	if s, _ := repo.GetByID(ctx, "s2"); s != nil {
		t.Fatal("sessions should be gone after DeleteAllForAccount")
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestPostgresRepository(t *testing.T) {
	conn := dbtest.Open(t, "sessions", "accounts")
	now := time.Now().UTC()
	if _, err := conn.Exec(`INSERT INTO accounts (id, email, password_hash, created_at, updated_at) VALUES ('acc-1', 'a@x.com', 'h', $1, $1)`, now); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	exerciseRepository(t, NewPostgresRepository(conn))
}
