package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/archivist/internal/core"
	"golang.org/x/time/rate"
)

// Local is an in-process token bucket per key, used when no redis is
// configured. A zero limit disables limiting.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

var _ core.RateLimiter = (*Local)(nil)

// NewLocal allows perWindow actions per window for each key.
func NewLocal(perWindow int, window time.Duration) *Local {
	l := &Local{buckets: make(map[string]*rate.Limiter), burst: perWindow}
	if perWindow > 0 && window > 0 {
		l.limit = rate.Every(window / time.Duration(perWindow))
	}
	return l
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	if l.burst <= 0 {
		return true, nil
	}

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.Allow(), nil
}
