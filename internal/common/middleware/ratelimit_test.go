package middleware

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(3, 1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !tb.Allow(ctx) {
			t.Fatalf("expected request %d to pass", i)
		}
	}
	if tb.Allow(ctx) {
		t.Fatalf("expected bucket to be empty")
	}
}

func TestKeyedLimiterIsolation(t *testing.T) {
	kl := NewKeyedLimiter(1, 1)
	ctx := context.Background()

	if !kl.Allow(ctx, "vehicle-a") {
		t.Fatalf("expected first request for vehicle-a to pass")
	}
	if kl.Allow(ctx, "vehicle-a") {
		t.Fatalf("expected vehicle-a to be limited")
	}
	// 其他 key 不受影响
	if !kl.Allow(ctx, "vehicle-b") {
		t.Fatalf("expected vehicle-b to have its own bucket")
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(50*time.Millisecond, 2)
	ctx := context.Background()

	if !sw.Allow(ctx) || !sw.Allow(ctx) {
		t.Fatalf("expected first two requests to pass")
	}
	if sw.Allow(ctx) {
		t.Fatalf("expected third request to be limited")
	}

	time.Sleep(60 * time.Millisecond)
	if !sw.Allow(ctx) {
		t.Fatalf("expected request to pass after window slides")
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 20*time.Millisecond)
	ctx := context.Background()
	failing := func() error { return context.DeadlineExceeded }

	_ = cb.Call(ctx, failing)
	_ = cb.Call(ctx, failing)
	if cb.GetState() != StateOpen {
		t.Fatalf("expected breaker to open after max failures")
	}
	if err := cb.Call(ctx, func() error { return nil }); err != ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to pass: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected breaker to close after success")
	}
}
