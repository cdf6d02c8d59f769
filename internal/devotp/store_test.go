package devotp

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Put(ctx, "a@x.com", "VERIFY_EMAIL", "123456", time.Now().UTC().Add(5*time.Minute))

	code, ok := store.Get(ctx, "a@x.com", "VERIFY_EMAIL")
	if !ok || code != "123456" {
		t.Fatalf("Get = %q, %v; want 123456, true", code, ok)
	}
	if _, ok := store.Get(ctx, "a@x.com", "CHANGE_EMAIL"); ok {
		t.Error("codes are scoped by purpose")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	code, ok := NewMemoryStore().Get(context.Background(), "nobody", "VERIFY_EMAIL")
	if ok || code != "" {
		t.Errorf("Get = %q, %v; want empty, false", code, ok)
	}
}

func TestMemoryStore_ExpiredIsRemoved(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Put(ctx, "a@x.com", "VERIFY_EMAIL", "123456", time.Now().UTC().Add(-time.Minute))

	if _, ok := store.Get(ctx, "a@x.com", "VERIFY_EMAIL"); ok {
		t.Fatal("expired code should not be returned")
	}
	store.mu.RLock()
	n := len(store.m)
	store.mu.RUnlock()
	if n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Minute)
	store.Put(ctx, "a@x.com", "VERIFY_EMAIL", "111111", exp)
	store.Put(ctx, "a@x.com", "VERIFY_EMAIL", "222222", exp)
	if code, _ := store.Get(ctx, "a@x.com", "VERIFY_EMAIL"); code != "222222" {
		t.Errorf("code = %q, want 222222", code)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Put(ctx, "a@x.com", "VERIFY_EMAIL", "123456", exp)
		}()
		go func() {
			defer wg.Done()
			store.Get(ctx, "a@x.com", "VERIFY_EMAIL")
		}()
	}
	wg.Wait()
}
