package core

import "context"

// RateLimiter decides whether key may perform one more action now.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
