package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/dmehra2102/Storefront-Order-Service/test/integration"
)

type RedisSuite struct {
	suite.Suite

	env *integration.Env
	rdb *goredis.Client
	log *slog.Logger
}

func TestRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires docker")
	}
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	ctx := context.Background()

	env, err := integration.Setup(ctx, integration.WithRedis())
	s.Require().NoError(err)
	s.env = env

	s.rdb = goredis.NewClient(&goredis.Options{Addr: env.RedisAddr})
	s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RedisSuite) TearDownSuite() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.env != nil {
		s.env.Teardown(context.Background())
	}
}

func (s *RedisSuite) SetupTest() {
	s.Require().NoError(s.rdb.FlushAll(context.Background()).Err())
}

func (s *RedisSuite) TestCacheSetGetInvalidate() {
	ctx := context.Background()
	cache := NewCache(s.log, s.rdb)

	s.Require().NoError(cache.Set(ctx, "orders", "list", []byte(`["a"]`), 60))
	s.Require().NoError(cache.Set(ctx, "orders", "product:p1", []byte(`{"n":1}`), 60))

	val, ok, err := cache.Get(ctx, "orders", "list")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(`["a"]`, string(val))

	deleted, err := cache.Invalidate(ctx, "orders", "list", "product:p1")
	s.Require().NoError(err)
	s.Positive(deleted)

	_, ok, err = cache.Get(ctx, "orders", "list")
	s.Require().NoError(err)
	s.False(ok)
	_, ok, err = cache.Get(ctx, "orders", "product:p1")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisSuite) TestCacheInvalidateDropsWholeTag() {
	ctx := context.Background()
	cache := NewCache(s.log, s.rdb)

	s.Require().NoError(cache.Set(ctx, "orders", "product:p1", []byte("x"), 60))
	s.Require().NoError(cache.Set(ctx, "orders", "product:p2", []byte("y"), 60))

	// Invalidate names no keys; the tag set must still find both entries.
	_, err := cache.Invalidate(ctx, "orders")
	s.Require().NoError(err)

	for _, key := range []string{"product:p1", "product:p2"} {
		_, ok, err := cache.Get(ctx, "orders", key)
		s.Require().NoError(err)
		s.False(ok, "key %s should be gone", key)
	}
}

func (s *RedisSuite) TestCacheInvalidateLeavesOtherTags() {
	ctx := context.Background()
	cache := NewCache(s.log, s.rdb)

	s.Require().NoError(cache.Set(ctx, "orders", "list", []byte("x"), 60))
	s.Require().NoError(cache.Set(ctx, "products", "list", []byte("y"), 60))

	_, err := cache.Invalidate(ctx, "orders", "list")
	s.Require().NoError(err)

	_, ok, err := cache.Get(ctx, "products", "list")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisSuite) TestCacheMiss() {
	cache := NewCache(s.log, s.rdb)

	_, ok, err := cache.Get(context.Background(), "orders", "nope")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisSuite) TestLimiterAllowsUnderLimit() {
	ctx := context.Background()
	limiter := NewLimiter(s.log, s.rdb, 3, time.Minute)

	for i := 0; i < 3; i++ {
		blocked, _, err := limiter.Check(ctx, "orders:create", "client-a")
		s.Require().NoError(err)
		s.False(blocked, "request %d should pass", i+1)
	}
}

func (s *RedisSuite) TestLimiterBlocksOverLimit() {
	ctx := context.Background()
	limiter := NewLimiter(s.log, s.rdb, 2, time.Minute)

	for i := 0; i < 2; i++ {
		blocked, _, err := limiter.Check(ctx, "orders:create", "client-b")
		s.Require().NoError(err)
		s.False(blocked)
	}

	blocked, retryAfter, err := limiter.Check(ctx, "orders:create", "client-b")
	s.Require().NoError(err)
	s.True(blocked)
	s.Positive(retryAfter)
	s.LessOrEqual(retryAfter, time.Minute)
}

func (s *RedisSuite) TestLimiterIsolatesClients() {
	ctx := context.Background()
	limiter := NewLimiter(s.log, s.rdb, 1, time.Minute)

	blocked, _, err := limiter.Check(ctx, "orders:create", "client-c")
	s.Require().NoError(err)
	s.False(blocked)

	blocked, _, err = limiter.Check(ctx, "orders:create", "client-d")
	s.Require().NoError(err)
	s.False(blocked, "one client must not consume another client's allowance")
}

func (s *RedisSuite) TestLimiterWindowResets() {
	ctx := context.Background()
	limiter := NewLimiter(s.log, s.rdb, 1, time.Second)

	blocked, _, err := limiter.Check(ctx, "orders:create", "client-e")
	s.Require().NoError(err)
	s.False(blocked)

	blocked, _, err = limiter.Check(ctx, "orders:create", "client-e")
	s.Require().NoError(err)
	s.True(blocked)

	time.Sleep(1100 * time.Millisecond)

	blocked, _, err = limiter.Check(ctx, "orders:create", "client-e")
	s.Require().NoError(err)
	s.False(blocked, "a fresh window should admit the client again")
}
