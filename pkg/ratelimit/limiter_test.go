package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeStore counts in memory and can be told to fail.
type fakeStore struct {
	counts  map[string]int64
	expires map[string]time.Duration
	ttl     time.Duration
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

func (s *fakeStore) Incr(_ context.Context, key string) (int64, error) {
	if s.failing {
		return 0, errors.New("connection refused")
	}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	if s.failing {
		return errors.New("connection refused")
	}
	s.expires[key] = ttl
	return nil
}

func (s *fakeStore) TTL(_ context.Context, _ string) (time.Duration, error) {
	if s.failing {
		return 0, errors.New("connection refused")
	}
	return s.ttl, nil
}

func TestAllowUnderLimit(t *testing.T) {
	store := newFakeStore()
	limiter := NewLimiter(store, 3, time.Minute)

	for i := 0; i < 3; i++ {
		result := limiter.Allow(context.Background(), "1.2.3.4")
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}
}

func TestDenyOverLimit(t *testing.T) {
	store := newFakeStore()
	store.ttl = 42 * time.Second
	limiter := NewLimiter(store, 2, time.Minute)

	limiter.Allow(context.Background(), "1.2.3.4")
	limiter.Allow(context.Background(), "1.2.3.4")

	result := limiter.Allow(context.Background(), "1.2.3.4")
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.Equal(t, 42*time.Second, result.RetryAfter)
}

func TestWindowTTLSetOnFirstRequest(t *testing.T) {
	store := newFakeStore()
	limiter := NewLimiter(store, 5, time.Minute)

	limiter.Allow(context.Background(), "1.2.3.4")
	assert.Equal(t, time.Minute, store.expires["ratelimit:1.2.3.4"])
}

func TestIdentifiersAreIndependent(t *testing.T) {
	store := newFakeStore()
	limiter := NewLimiter(store, 1, time.Minute)

	assert.True(t, limiter.Allow(context.Background(), "1.1.1.1").Allowed)
	assert.False(t, limiter.Allow(context.Background(), "1.1.1.1").Allowed)
	assert.True(t, limiter.Allow(context.Background(), "2.2.2.2").Allowed)
}

func TestFailsOpenWhenStoreUnreachable(t *testing.T) {
	store := newFakeStore()
	store.failing = true
	limiter := NewLimiter(store, 1, time.Minute)

	// A dead cache lets traffic through instead of blocking everyone.
	for i := 0; i < 5; i++ {
		result := limiter.Allow(context.Background(), "1.2.3.4")
		assert.True(t, result.Allowed)
	}
}

func TestNilStoreAllowsEverything(t *testing.T) {
	limiter := NewLimiter(nil, 1, time.Minute)
	assert.True(t, limiter.Allow(context.Background(), "1.2.3.4").Allowed)
}
