package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got interface{}
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.(string) != "v" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got interface{}
	if err := mc.Get(context.Background(), "absent", &got); err != ErrCacheMiss {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", 42, 1000*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	// retrievable immediately
	var got interface{}
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	// a read after expiry is a miss and evicts the entry
	now = now.Add(1001 * time.Millisecond)
	if err := mc.Get(ctx, "k", &got); err != ErrCacheMiss {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
	if ok, _ := mc.Exists(ctx, "k"); ok {
		t.Fatalf("expected stale entry evicted")
	}
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))
	defer mc.Close()
	ctx := context.Background()

	// ttl <= 0 falls back to the 60s default
	if err := mc.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	now = now.Add(59 * time.Second)
	var got interface{}
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get within default ttl: %v", err)
	}
	now = now.Add(2 * time.Second)
	if err := mc.Get(ctx, "k", &got); err != ErrCacheMiss {
		t.Fatalf("expected miss after default ttl, got %v", err)
	}
}

func TestMemoryCacheFreshWriteAfterExpiry(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "k", "old", time.Second)
	now = now.Add(2 * time.Second)
	// a write racing delete-on-expiry must win: the fresh entry survives
	_ = mc.Set(ctx, "k", "new", time.Minute)

	var got interface{}
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.(string) != "new" {
		t.Fatalf("expected fresh value, got %v", got)
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", 1, time.Minute)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	var got interface{}
	_ = mc.Get(ctx, "a", &got) // touch a so b is oldest
	_ = mc.Set(ctx, "c", 3, time.Minute)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatalf("expected a retained")
	}
}

func TestGetTyped(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type point struct{ X, Y int }
	_ = mc.Set(ctx, "p", point{1, 2}, time.Minute)

	p, ok := GetTyped[point](ctx, mc, "p")
	if !ok {
		t.Fatalf("expected hit")
	}
	if p.X != 1 || p.Y != 2 {
		t.Fatalf("unexpected value %+v", p)
	}

	if _, ok := GetTyped[string](ctx, mc, "p"); ok {
		t.Fatalf("type mismatch should be a miss")
	}
}
