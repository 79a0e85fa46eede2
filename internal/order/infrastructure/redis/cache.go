package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache evicts read-side projections. Cached values register themselves
// under a tag set so a whole tag can be dropped at once; explicit keys are
// deleted alongside whatever the tag tracks.
type Cache struct {
	log *slog.Logger
	rdb *redis.Client
}

func NewCache(log *slog.Logger, rdb *redis.Client) *Cache {
	return &Cache{log: log, rdb: rdb}
}

func cacheKey(tag, key string) string { return fmt.Sprintf("cache:%s:%s", tag, key) }
func tagSetKey(tag string) string     { return fmt.Sprintf("cachetag:%s", tag) }

func (c *Cache) Invalidate(ctx context.Context, tag string, keys ...string) (int64, error) {
	targets := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		targets = append(targets, cacheKey(tag, k))
	}

	members, err := c.rdb.SMembers(ctx, tagSetKey(tag)).Result()
	if err != nil {
		return 0, fmt.Errorf("smembers %s: %w", tagSetKey(tag), err)
	}
	targets = append(targets, members...)
	targets = append(targets, tagSetKey(tag))

	deleted, err := c.rdb.Del(ctx, targets...).Result()
	if err != nil {
		return deleted, fmt.Errorf("del: %w", err)
	}
	c.log.Debug("cache invalidated", "tag", tag, "deleted", deleted)
	return deleted, nil
}

// Set stores a value and records its key in the tag set so Invalidate can
// find it later. TTL bounds staleness if invalidation is ever missed.
func (c *Cache) Set(ctx context.Context, tag, key string, value []byte, ttlSeconds int) error {
	full := cacheKey(tag, key)
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, full, value, 0)
	if ttlSeconds > 0 {
		pipe.Expire(ctx, full, time.Duration(ttlSeconds)*time.Second)
	}
	pipe.SAdd(ctx, tagSetKey(tag), full)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set %s: %w", full, err)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, tag, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, cacheKey(tag, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}
