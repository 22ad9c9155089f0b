package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test"), mr
}

func TestTryLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	first, err := c.TryLock(ctx, "dispatch", time.Minute)
	if err != nil || first == nil {
		t.Fatalf("expected to acquire lock, got %v %v", first, err)
	}
	if !mr.Exists("test:lock:dispatch") {
		t.Fatalf("expected prefixed lock key")
	}

	second, err := c.TryLock(ctx, "dispatch", time.Minute)
	if err != nil || second != nil {
		t.Fatalf("expected lock to be held, got %v %v", second, err)
	}

	if err := c.Unlock(ctx, first); err != nil {
		t.Fatalf("Unlock() error: %v", err)
	}
	if mr.Exists("test:lock:dispatch") {
		t.Fatalf("expected lock to be released")
	}
}

func TestUnlock_ForeignOwner(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	stale, _ := c.TryLock(ctx, "req-1", time.Second)
	mr.FastForward(2 * time.Second)

	current, _ := c.TryLock(ctx, "req-1", time.Minute)
	if current == nil {
		t.Fatalf("expected lock after expiry")
	}

	if err := c.Unlock(ctx, stale); err != nil {
		t.Fatalf("Unlock() error: %v", err)
	}
	if !mr.Exists("test:lock:req-1") {
		t.Fatalf("stale owner must not release the current lock")
	}
}

func TestMarkTokenUsed(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.MarkTokenUsed(ctx, "abc", 10*time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first use to succeed, got %v %v", ok, err)
	}
	ok, _ = c.MarkTokenUsed(ctx, "abc", 10*time.Minute)
	if ok {
		t.Fatalf("expected replay to be refused")
	}

	if err := c.ReleaseToken(ctx, "abc"); err != nil {
		t.Fatalf("ReleaseToken() error: %v", err)
	}
	ok, _ = c.MarkTokenUsed(ctx, "abc", 10*time.Minute)
	if !ok {
		t.Fatalf("expected released token to be usable")
	}

	mr.FastForward(11 * time.Minute)
	if mr.Exists("test:token:used:abc") {
		t.Fatalf("expected token marker to expire")
	}
}

func TestMessageDedup(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, _ := c.TryMarkMessageProcessing(ctx, "m1", 0)
	if !ok {
		t.Fatalf("expected first delivery to be processed")
	}
	ok, _ = c.TryMarkMessageProcessing(ctx, "m1", 0)
	if ok {
		t.Fatalf("expected duplicate to be refused")
	}

	if err := c.MarkMessageProcessed(ctx, "m1"); err != nil {
		t.Fatalf("MarkMessageProcessed() error: %v", err)
	}
	if v, _ := mr.Get("test:message:processed:m1"); v != "processed" {
		t.Fatalf("expected processed marker, got %q", v)
	}

	_ = c.UnmarkMessageProcessing(ctx, "m1")
	ok, _ = c.TryMarkMessageProcessing(ctx, "m1", 0)
	if !ok {
		t.Fatalf("expected unmarked message to be processable")
	}
}
