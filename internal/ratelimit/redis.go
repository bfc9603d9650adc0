package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter is a fixed-window counter backed by a shared redis instance.
// It gives consistent limiting across multiple service instances, which the
// in-memory limiter explicitly does not.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	log         *zap.Logger
}

// NewRedisLimiter creates a redis-backed limiter.
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		log:         log,
	}
}

// Check increments the per-key window counter atomically. INCR + expire-on-first
// keeps the whole decision on the redis side, so concurrent requests across
// instances cannot both take the last slot.
func (rl *RedisLimiter) Check(ctx context.Context, clientKey string) (Result, error) {
	key := "ratelimit:" + clientKey

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, rl.window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incr.Val()
	resetAt := time.Now().Add(ttl.Val())

	remaining := rl.maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(rl.maxRequests),
		Limit:     rl.maxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
