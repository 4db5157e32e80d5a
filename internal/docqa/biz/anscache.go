package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// AnswerCacheConfig controls the Redis-backed answer cache.
type AnswerCacheConfig struct {
	Enabled   bool
	TTL       time.Duration
	KeyPrefix string
}

// AnswerCache stores final answer strings in Redis, keyed by document
// and question. All operations are best effort: a Redis failure never
// fails the request, it only skips the cache.
type AnswerCache struct {
	redis *goredis.Client
	cfg   AnswerCacheConfig
}

// NewAnswerCache creates an AnswerCache. A nil Redis client disables it.
func NewAnswerCache(redis *goredis.Client, cfg AnswerCacheConfig) *AnswerCache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "docqa:answer:"
	}
	return &AnswerCache{redis: redis, cfg: cfg}
}

func (c *AnswerCache) enabled() bool {
	return c.cfg.Enabled && c.redis != nil
}

func (c *AnswerCache) key(docKey, question string) string {
	sum := sha256.Sum256([]byte(question))
	return c.cfg.KeyPrefix + docKey + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached answer for a document/question pair, or
// ("", false) on a miss or any Redis error.
func (c *AnswerCache) Get(ctx context.Context, docKey, question string) (string, bool) {
	if !c.enabled() {
		return "", false
	}
	key := c.key(docKey, question)
	answer, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("answer cache get failed", "error", err.Error(), "key", key)
		}
		return "", false
	}
	logger.Infow("answer cache hit", "key", key)
	return answer, true
}

// Set stores an answer. Errors are logged and swallowed.
func (c *AnswerCache) Set(ctx context.Context, docKey, question, answer string) {
	if !c.enabled() {
		return
	}
	key := c.key(docKey, question)
	if err := c.redis.Set(ctx, key, answer, c.cfg.TTL).Err(); err != nil {
		logger.Warnw("answer cache set failed", "error", err.Error(), "key", key)
	}
}

// Clear deletes all cached answers under the configured prefix.
func (c *AnswerCache) Clear(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	iter := c.redis.Scan(ctx, 0, c.cfg.KeyPrefix+"*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete answer cache key", "error", err.Error(), "key", iter.Val())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	logger.Infow("cleared answer cache", "deleted_count", deleted)
	return nil
}
