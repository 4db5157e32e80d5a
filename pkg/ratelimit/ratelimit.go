// Package ratelimit provides sliding-window rate limiting keyed by client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	// Allow checks if a request with the given key is allowed.
	// Returns true if allowed, false if the rate limit is exceeded.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the rate limit window for the given key.
	Reset(ctx context.Context, key string) error
}

// MemoryLimiter implements a per-key sliding window over in-process state.
// Expired timestamps are pruned lazily on each admission check; there is no
// background sweeper.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	store  sync.Map
}

type windowEntry struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewMemoryLimiter creates a memory-based limiter allowing limit requests
// per window for each key.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
	}
}

// Allow checks if a request with the given key is allowed. A rejected
// request is not recorded, so rejections never extend the window.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	value, _ := m.store.LoadOrStore(key, &windowEntry{
		requests: make([]time.Time, 0, m.limit),
	})

	entry := value.(*windowEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	cutoff := now.Add(-m.window)
	entry.requests = pruneExpired(entry.requests, cutoff)

	if len(entry.requests) >= m.limit {
		return false, nil
	}

	entry.requests = append(entry.requests, now)
	return true, nil
}

// Reset clears the window for the given key.
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

// pruneExpired drops timestamps at or before cutoff. Timestamps are
// appended in order, so only the leading run can be expired.
func pruneExpired(requests []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(requests) && !requests[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		requests = append(requests[:0], requests[idx:]...)
	}
	return requests
}

// RedisLimiter implements the same sliding window over a Redis sorted set,
// for deployments with more than one replica.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a Redis-based limiter.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "docqa:ratelimit:",
	}
}

// Allow checks if a request with the given key is allowed.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	redisKey := r.prefix + key

	// Prune the window and count what remains in one round trip.
	pipe := r.client.Pipeline()
	minScore := fmt.Sprintf("%d", now.Add(-r.window).UnixNano())
	pipe.ZRemRangeByScore(ctx, redisKey, "0", minScore)
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	if countCmd.Val() >= int64(r.limit) {
		return false, nil
	}

	// Record the admitted request.
	member := fmt.Sprintf("%d", now.UnixNano())
	pipe = r.client.Pipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, r.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	return true, nil
}

// Reset clears the window for the given key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
