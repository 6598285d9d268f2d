package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != "v" {
		t.Errorf("expected %q, got %q", "v", got)
	}
}

func TestMemory_SetCopiesValue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	val := []byte("abc")
	m.Set(ctx, "k", val, 0)
	val[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("expected stored value to be unaffected, got %q", got)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, "short", []byte("1"), time.Minute)
	m.Set(ctx, "forever", []byte("2"), 0)

	now = now.Add(59 * time.Second)
	if _, ok, _ := m.Get(ctx, "short"); !ok {
		t.Error("expected entry to survive before its ttl")
	}

	now = now.Add(time.Second)
	if _, ok, _ := m.Get(ctx, "short"); ok {
		t.Error("expected entry to expire at its ttl")
	}
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Error("expected entry without ttl to survive")
	}
}

func TestMemory_Cleanup(t *testing.T) {
	m := NewMemory()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, "a", []byte("1"), time.Second)
	m.Set(ctx, "b", []byte("2"), time.Hour)
	now = now.Add(time.Minute)
	m.Cleanup()

	if m.Len() != 1 {
		t.Errorf("expected 1 entry after cleanup, got %d", m.Len())
	}
}

func TestNop_NeverHits(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"), 0)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected Nop cache to miss")
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, addr, 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer r.Close()

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	if _, ok, err := r.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := r.Get(ctx, key)
	if err != nil || !ok || string(got) != "payload" {
		t.Errorf("expected hit with payload, got %q ok=%v err=%v", got, ok, err)
	}
}
