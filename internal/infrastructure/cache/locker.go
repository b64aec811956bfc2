package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/verone/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultLockPrefix = "backoffice:lock:"

// RedisLocker hands out distributed locks through redislock. Obtain does not
// wait: a held key fails immediately with shared.ErrLockNotObtained.
type RedisLocker struct {
	client *redislock.Client
	prefix string
	logger *zap.Logger
}

// NewRedisLocker creates a locker on an existing client.
func NewRedisLocker(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisLocker {
	if prefix == "" {
		prefix = defaultLockPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: redislock.New(client), prefix: prefix, logger: logger}
}

// Obtain takes key for ttl.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lock, key: key, logger: l.logger}, nil
}

type redisLock struct {
	lock   *redislock.Lock
	key    string
	logger *zap.Logger
}

// Release drops the lock. A lock that already expired is not an error.
func (r *redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		r.logger.Warn("lock expired before release", zap.String("key", r.key))
		return nil
	}
	return err
}

// InMemoryLocker is the single-instance fallback for RedisLocker.
type InMemoryLocker struct {
	mu    sync.Mutex
	held  map[string]lockEntry
	now   func() time.Time
	token uint64
}

type lockEntry struct {
	token   uint64
	expires time.Time
}

// NewInMemoryLocker creates an empty locker.
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[string]lockEntry), now: time.Now}
}

// Obtain takes key for ttl unless another unexpired holder has it.
func (l *InMemoryLocker) Obtain(_ context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, shared.ErrLockNotObtained
	}
	l.token++
	l.held[key] = lockEntry{token: l.token, expires: now.Add(ttl)}
	return &memLock{locker: l, key: key, token: l.token}, nil
}

type memLock struct {
	locker *InMemoryLocker
	key    string
	token  uint64
}

func (m *memLock) Release(context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()
	if e, ok := m.locker.held[m.key]; ok && e.token == m.token {
		delete(m.locker.held, m.key)
	}
	return nil
}

var (
	_ shared.Locker = (*RedisLocker)(nil)
	_ shared.Locker = (*InMemoryLocker)(nil)
)
