package cache

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Coordination bundles the idempotency store and the locker the services
// share, backed by Redis or by process memory.
type Coordination struct {
	Idempotency shared.IdempotencyStore
	Locker      shared.Locker
	Redis       *redis.Client
	closers     []io.Closer
}

// NewCoordination connects to Redis when enabled. With Redis disabled it
// falls back to in-memory implementations and logs a warning, since they
// do not coordinate across instances.
func NewCoordination(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Coordination, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Warn("Redis disabled, idempotency keys and locks are local to this instance")
		store := NewInMemoryIdempotencyStore(0)
		return &Coordination{
			Idempotency: store,
			Locker:      NewInMemoryLocker(),
			closers:     []io.Closer{store},
		}, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis for idempotency and locks", zap.String("addr", cfg.Addr))
	return &Coordination{
		Idempotency: NewRedisIdempotencyStore(client, cfg.KeyPrefix+"idempotency:"),
		Locker:      NewRedisLocker(client, cfg.KeyPrefix+"lock:", logger),
		Redis:       client,
		closers:     []io.Closer{client},
	}, nil
}

// Ping reports Redis reachability; always nil for the in-memory fallback.
func (c *Coordination) Ping(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (c *Coordination) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
