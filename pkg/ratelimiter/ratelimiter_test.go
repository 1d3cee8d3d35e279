package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterBlocksAfterLimit(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, _ := l.Allow(ctx, "10.0.0.1")
	if res.Allowed {
		t.Fatal("fourth request should be blocked")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", res.RetryAfter)
	}
	if res.Limit != 3 {
		t.Errorf("Limit = %d", res.Limit)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Hour)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "a"); !res.Allowed {
		t.Fatal("first request for a should pass")
	}
	if res, _ := l.Allow(ctx, "b"); !res.Allowed {
		t.Fatal("first request for b should pass")
	}
	if res, _ := l.Allow(ctx, "a"); res.Allowed {
		t.Fatal("second request for a should be blocked")
	}
}

func TestNewFallsBackToMemory(t *testing.T) {
	if _, ok := New(nil, 10, time.Minute).(*memoryLimiter); !ok {
		t.Error("nil redis client should yield the in-memory limiter")
	}
}
