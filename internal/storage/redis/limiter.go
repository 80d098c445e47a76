package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sandevgo/archivist/internal/core"
)

// Limiter is a fixed window counter shared by every process that talks to
// the same redis.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

var _ core.RateLimiter = (*Limiter)(nil)

func NewLimiter(ctx context.Context, redisURL string, limit int, window time.Duration) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Limiter{client: client, limit: limit, window: window}, nil
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	k := rateLimitKey(key)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to update rate limit counter: %w", err)
	}

	return incr.Val() <= int64(l.limit), nil
}

func (l *Limiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *Limiter) Close() error {
	return l.client.Close()
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}
