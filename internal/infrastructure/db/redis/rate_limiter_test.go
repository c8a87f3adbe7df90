package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, "ratelimit:"), client
}

func TestRateLimiter_EnforcesLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "reset:window:u1", 2, 3*time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !first.Allowed || first.Remaining != 1 {
		t.Fatalf("first request: %+v", first)
	}

	second, err := limiter.Allow(ctx, "reset:window:u1", 2, 3*time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !second.Allowed || second.Remaining != 0 {
		t.Fatalf("second request: %+v", second)
	}

	third, err := limiter.Allow(ctx, "reset:window:u1", 2, 3*time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if third.Allowed {
		t.Fatalf("third request admitted over the limit: %+v", third)
	}
	// Oldest member just arrived, so the window frees up ~one full window out.
	if third.RetryAfter < 3*time.Hour-time.Minute || third.RetryAfter > 3*time.Hour {
		t.Fatalf("unexpected retry-after: %v", third.RetryAfter)
	}

	// A different key is an independent window.
	other, err := limiter.Allow(ctx, "reset:window:u2", 2, 3*time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !other.Allowed {
		t.Fatalf("unrelated key rejected: %+v", other)
	}
}

// Entries older than the window stop counting, and retry-after is derived
// from the oldest entry still inside it.
func TestRateLimiter_WindowSlides(t *testing.T) {
	limiter, client := newTestLimiter(t)
	ctx := context.Background()

	now := time.Now()
	window := 120 * time.Second

	// Two prior requests: one at t-122s (already outside the window) and
	// one at t-61s (still inside).
	client.ZAdd(ctx, "ratelimit:reset:window:u1",
		redis.Z{Score: float64(now.Add(-122 * time.Second).UnixMilli()), Member: "seed-1"},
		redis.Z{Score: float64(now.Add(-61 * time.Second).UnixMilli()), Member: "seed-2"},
	)

	// The expired entry is pruned, so this request is the second of two.
	dec, err := limiter.Allow(ctx, "reset:window:u1", 2, window)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !dec.Allowed || dec.Remaining != 0 {
		t.Fatalf("request inside a half-drained window: %+v", dec)
	}

	// Now the window is full; it frees when the t-61s entry ages out,
	// 59 seconds from now.
	dec, err = limiter.Allow(ctx, "reset:window:u1", 2, window)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if dec.Allowed {
		t.Fatalf("request admitted over the limit: %+v", dec)
	}
	if dec.RetryAfter < 50*time.Second || dec.RetryAfter > 59*time.Second {
		t.Fatalf("retry-after not derived from the oldest entry: %v", dec.RetryAfter)
	}
}
