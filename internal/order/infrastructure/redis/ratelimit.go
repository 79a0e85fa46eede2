package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter per (route, client) pair. The first
// request in a window sets the expiry; once the count passes the limit the
// remaining TTL is the retry-after hint.
type Limiter struct {
	log    *slog.Logger
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewLimiter(log *slog.Logger, rdb *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{log: log, rdb: rdb, limit: limit, window: window}
}

func (l *Limiter) Check(ctx context.Context, routeKey, clientKey string) (bool, time.Duration, error) {
	if clientKey == "" {
		clientKey = "anonymous"
	}
	key := fmt.Sprintf("ratelimit:%s:%s", routeKey, clientKey)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	if count <= l.limit {
		return false, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	l.log.Info("rate limit exceeded", "route", routeKey, "client", clientKey, "count", count)
	return true, ttl, nil
}
