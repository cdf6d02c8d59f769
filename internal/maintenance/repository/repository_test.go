package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"libmanage/backend/internal/db/dbtest"
	"libmanage/backend/internal/maintenance/domain"
	settingsrepo "libmanage/backend/internal/platformsettings/repository"
)

func exerciseStore(t *testing.T, store FlagStore) {
	t.Helper()
	ctx := context.Background()

	if st, err := store.Get(ctx); err != nil || st != nil {
		t.Fatalf("Get before Set = %+v, %v; want nil", st, err)
	}
	since := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	if err := store.Set(ctx, domain.Status{Enabled: true, Since: since, UpdatedBy: "root@x.com"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	st, err := store.Get(ctx)
	if err != nil || st == nil {
		t.Fatalf("Get = %+v, %v", st, err)
	}
	if !st.Enabled || !st.Since.Equal(since) || st.UpdatedBy != "root@x.com" {
		t.Errorf("Get = %+v", st)
	}
	if err := store.Set(ctx, domain.Status{Enabled: false, Since: since.Add(time.Hour), UpdatedBy: "system"}); err != nil {
		t.Fatalf("Set off: %v", err)
	}
	if st, _ := store.Get(ctx); st.Enabled {
		t.Error("flag should be off after second Set")
	}
}

// staticSettings is an in-memory platform settings repository.
type staticSettings struct {
	m map[string]*settingsrepo.Setting
}

func (s *staticSettings) Get(ctx context.Context, key string) (*settingsrepo.Setting, error) {
	return s.m[key], nil
}

func (s *staticSettings) Put(ctx context.Context, st *settingsrepo.Setting) error {
	s.m[st.Key] = st
	return nil
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Set(context.Background(), domain.Status{Enabled: true})
	st, _ := s.Get(context.Background())
	st.Enabled = false
	if again, _ := s.Get(context.Background()); !again.Enabled {
		t.Error("mutating a returned status must not change the store")
	}
}

func TestPostgresStore_WithFakeSettings(t *testing.T) {
	exerciseStore(t, NewPostgresStore(&staticSettings{m: map[string]*settingsrepo.Setting{}}))
}

func TestPostgresStore(t *testing.T) {
	conn := dbtest.Open(t, "platform_settings")
	exerciseStore(t, NewPostgresStore(settingsrepo.NewPostgresRepository(conn)))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping Redis integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	key := "libmanage:test:maintenance:" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { client.Del(context.Background(), key) })
	exerciseStore(t, NewRedisStore(client, key))
}
