package integration

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

// Env holds the containerized backing services an integration test needs.
// Start only what the test uses; nil containers are skipped on teardown.
type Env struct {
	PG    *postgres.PostgresContainer
	Redis *redis.RedisContainer
	Kafka *kafka.KafkaContainer

	PGURL     string
	RedisAddr string
	KafkaAddr []string

	cancel context.CancelFunc
}

type Option func(*options)

type options struct {
	redis bool
	kafka bool
}

func WithRedis() Option { return func(o *options) { o.redis = true } }
func WithKafka() Option { return func(o *options) { o.kafka = true } }

func Setup(ctx context.Context, opts ...Option) (*Env, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	env := &Env{cancel: cancel}

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	env.PG = pgC

	env.PGURL, err = pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.Teardown(context.Background())
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	if cfg.redis {
		redisC, err := redis.Run(ctx, "redis:7-alpine")
		if err != nil {
			env.Teardown(context.Background())
			return nil, fmt.Errorf("start redis: %w", err)
		}
		env.Redis = redisC

		endpoint, err := redisC.Endpoint(ctx, "")
		if err != nil {
			env.Teardown(context.Background())
			return nil, fmt.Errorf("redis endpoint: %w", err)
		}
		env.RedisAddr = endpoint
	}

	if cfg.kafka {
		kafkaC, err := kafka.Run(ctx,
			"confluentinc/confluent-local:7.5.0",
			kafka.WithClusterID("storefront-test"),
		)
		if err != nil {
			env.Teardown(context.Background())
			return nil, fmt.Errorf("start kafka: %w", err)
		}
		env.Kafka = kafkaC

		env.KafkaAddr, err = kafkaC.Brokers(ctx)
		if err != nil {
			env.Teardown(context.Background())
			return nil, fmt.Errorf("kafka brokers: %w", err)
		}
	}

	return env, nil
}

// ApplySchema runs the DDL file at path against the postgres container.
func (e *Env) ApplySchema(ctx context.Context, path string) error {
	ddl, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	pool, err := pgxpool.New(ctx, e.PGURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.cancel()
	if e.Kafka != nil {
		_ = e.Kafka.Terminate(ctx)
	}
	if e.Redis != nil {
		_ = e.Redis.Terminate(ctx)
	}
	if e.PG != nil {
		_ = e.PG.Terminate(ctx)
	}
}
