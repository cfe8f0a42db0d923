package ratelimit

import (
	"context"
	"time"

	"github.com/wavelink/authcore/pkg/logger"
	"go.uber.org/zap"
)

// CounterStore is the cache surface the limiter needs. Satisfied by
// pkg/redis.Client.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Result describes one rate-limit decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter implements fixed-window counting over an external cache. The TTL
// equals the window and is set lazily on the first increment. If the cache
// is unreachable the limiter fails open: availability over strictness.
type Limiter struct {
	store      CounterStore
	maxRequest int
	window     time.Duration
	prefix     string
}

func NewLimiter(store CounterStore, maxRequest int, window time.Duration) *Limiter {
	return &Limiter{
		store:      store,
		maxRequest: maxRequest,
		window:     window,
		prefix:     "ratelimit",
	}
}

// Allow counts one request against the identifier (IP or user id) and
// reports whether it fits the current window.
func (l *Limiter) Allow(ctx context.Context, identifier string) Result {
	if l.store == nil {
		return Result{Allowed: true, Remaining: l.maxRequest}
	}

	key := l.prefix + ":" + identifier

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		// Fail open: a dead cache must not block all traffic.
		logger.GetLogger().Warn("Rate limiter cache unreachable, allowing request",
			zap.String("identifier", identifier),
			zap.Error(err),
		)
		return Result{Allowed: true, Remaining: l.maxRequest}
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			logger.GetLogger().Warn("Failed to set rate limit window TTL",
				zap.String("identifier", identifier),
				zap.Error(err),
			)
		}
	}

	if count > int64(l.maxRequest) {
		retryAfter := l.window
		if ttl, err := l.store.TTL(ctx, key); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: retryAfter}
	}

	return Result{
		Allowed:   true,
		Remaining: l.maxRequest - int(count),
	}
}

// Max returns the configured window capacity.
func (l *Limiter) Max() int {
	return l.maxRequest
}
