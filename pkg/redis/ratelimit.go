package redis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter shares a sliding-window request budget between processes
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	seq    atomic.Uint64
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // budget name, e.g. "yahoo"
	Limit  int           // requests per window
	Window time.Duration
}

// YahooRateLimit is shared across processes hitting the chart API (보수적)
var YahooRateLimit = RateLimitConfig{
	Key:    "yahoo",
	Limit:  5,
	Window: time.Second,
}

const (
	minRetryWait = 10 * time.Millisecond
	maxRetryWait = time.Second
)

// slidingWindow returns {allowed, remaining, ms until the oldest entry expires}.
// Members carry a sequence suffix so two requests in the same millisecond both count.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local wait = window_ms
	if oldest[2] then
		wait = tonumber(oldest[2]) + window_ms - now
	end
	return {0, 0, wait}
`)

// NewRateLimiter creates a limiter; keys are namespaced under prefix
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow takes one request from the budget if there is room.
// Returns (allowed, remaining, error); a disabled client always allows.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	allowed, remaining, _, err := r.take(ctx, cfg)
	return allowed, remaining, err
}

// Wait blocks until a request is allowed or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, retryAfter, err := r.take(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}
	}
}

func (r *RateLimiter) take(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, 0, nil
	}

	now := time.Now().UnixMilli()
	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	member := fmt.Sprintf("%d-%d", now, r.seq.Add(1))

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now, cfg.Window.Milliseconds(), cfg.Limit, member).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(result) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit script returned %d values", len(result))
	}

	return result[0] == 1, int(result[1]), clampWait(time.Duration(result[2]) * time.Millisecond), nil
}

func clampWait(d time.Duration) time.Duration {
	if d < minRetryWait {
		return minRetryWait
	}
	if d > maxRetryWait {
		return maxRetryWait
	}
	return d
}
