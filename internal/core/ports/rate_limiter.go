package ports

import (
	"context"
	"time"
)

// RateLimitDecision is the outcome of one sliding-window check.
type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long the caller must wait before the window admits
	// another request. Zero when Allowed.
	RetryAfter time.Duration
}

// RateLimiter is a sliding-window counter keyed by identity+action. The
// check and the increment are a single atomic step in the backing store so
// horizontally replicated instances cannot double-admit.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
