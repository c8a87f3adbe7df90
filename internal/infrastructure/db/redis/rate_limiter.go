package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soporteya/auth-service/internal/core/ports"
)

// RateLimiter implements sliding-window rate limiting on Redis sorted sets.
// The window logic runs inside a Lua script so check-and-increment is a
// single atomic step across replicated instances.
type RateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

func NewRateLimiter(client *redis.Client, keyPrefix string) *RateLimiter {
	return &RateLimiter{client: client, keyPrefix: keyPrefix}
}

// Each request is a member scored by its arrival time in milliseconds.
// Members older than the window are pruned, the survivors counted, and the
// new request admitted only under the limit. On rejection the oldest
// surviving member's score tells the caller when the window frees up.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local seq_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', seq_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', seq_key, expire_seconds)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local free_at = 0
	if oldest and #oldest >= 2 then
		free_at = tonumber(oldest[2]) + window_ms
	end
	return {0, 0, free_at}
`)

func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ports.RateLimitDecision, error) {
	now := time.Now()
	redisKey := l.keyPrefix + key

	// The seq counter is declared up front; scripts must not touch keys
	// absent from KEYS.
	result, err := slidingWindowScript.Run(ctx, l.client,
		[]string{redisKey, redisKey + ":seq"},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		limit,
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return ports.RateLimitDecision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(result) != 3 {
		return ports.RateLimitDecision{}, fmt.Errorf("rate limit script: unexpected reply length %d", len(result))
	}

	decision := ports.RateLimitDecision{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
	}
	if !decision.Allowed {
		retryAfter := window
		if freeAt := result[2]; freeAt > 0 {
			retryAfter = time.UnixMilli(freeAt).Sub(now)
		}
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		decision.RetryAfter = retryAfter
	}
	return decision, nil
}
