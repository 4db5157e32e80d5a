package biz

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
)

const (
	// DefaultCacheCapacity bounds the number of cached documents.
	DefaultCacheCapacity = 10
	// DefaultCacheTTL is how long a cached document stays valid.
	DefaultCacheTTL = time.Hour
)

// DocEntry is an immutable processed document. Both the chunk slice
// and the index must not be mutated after insertion.
type DocEntry struct {
	Chunks    []string
	Index     store.VectorIndex
	CreatedAt time.Time
}

// BuildFunc processes a document URL into a cache entry.
type BuildFunc func(ctx context.Context) (*DocEntry, error)

// DocCacheConfig controls cache bounds.
type DocCacheConfig struct {
	Capacity int
	TTL      time.Duration
}

// DocCache caches processed documents keyed by the MD5 of their URL.
// When full, inserting a new document evicts the entry with the oldest
// CreatedAt. Expired entries are treated as misses and rebuilt.
type DocCache struct {
	mu       sync.Mutex
	entries  map[string]*DocEntry
	building map[string]*buildCall
	cfg      DocCacheConfig

	hits   int64
	misses int64
}

type buildCall struct {
	done  chan struct{}
	entry *DocEntry
	err   error
}

// NewDocCache creates a DocCache. Zero config fields fall back to defaults.
func NewDocCache(cfg DocCacheConfig) *DocCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCacheCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	return &DocCache{
		entries:  make(map[string]*DocEntry),
		building: make(map[string]*buildCall),
		cfg:      cfg,
	}
}

// DocKey returns the cache key for a document URL.
func DocKey(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// GetOrBuild returns the cached entry for key, building it with build
// on a miss. Concurrent callers for the same key share one build; a
// failed build is not cached, so the next caller retries.
func (c *DocCache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*DocEntry, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if time.Since(entry.CreatedAt) < c.cfg.TTL {
			c.hits++
			c.mu.Unlock()
			logger.Infow("document cache hit", "key", key, "chunks", len(entry.Chunks))
			return entry, nil
		}
		delete(c.entries, key)
	}
	if call, ok := c.building[key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.entry, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.misses++
	call := &buildCall{done: make(chan struct{})}
	c.building[key] = call
	c.mu.Unlock()

	entry, err := build(ctx)

	c.mu.Lock()
	delete(c.building, key)
	if err == nil {
		c.evictIfFull()
		c.entries[key] = entry
	}
	c.mu.Unlock()

	call.entry = entry
	call.err = err
	close(call.done)

	return entry, err
}

// evictIfFull removes the oldest entry when the cache is at capacity.
// Caller must hold c.mu.
func (c *DocCache) evictIfFull() {
	if len(c.entries) < c.cfg.Capacity {
		return
	}
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		logger.Infow("evicted cached document", "key", oldestKey, "age", time.Since(oldest).String())
	}
}

// Clear drops all cached documents.
func (c *DocCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*DocEntry)
}

// Stats reports cache occupancy and hit counters.
func (c *DocCache) Stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]any{
		"size":     len(c.entries),
		"capacity": c.cfg.Capacity,
		"ttl":      c.cfg.TTL.String(),
		"hits":     c.hits,
		"misses":   c.misses,
	}
}
