package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotAcquired is returned when another holder kept the lock for the
// whole retry budget.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serialises work across processes with a Redis mutex.
type Locker struct {
	rs         *redsync.Redsync
	tries      int
	retryDelay time.Duration
	logger     logrus.FieldLogger
}

// Config holds Redis connection details.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient opens a go-redis client and checks it with PING.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// New creates a Locker on top of client.
func New(client redis.UniversalClient, logger logrus.FieldLogger) *Locker {
	return &Locker{
		rs:         redsync.New(goredis.NewPool(client)),
		tries:      32,
		retryDelay: 100 * time.Millisecond,
		logger:     logger,
	}
}

// WithLock runs fn while holding the lock named key. The lock expires after
// ttl if the holder dies, and is released when fn returns.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(l.retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}
	l.logger.WithField("lock", key).Debug("lock acquired")

	defer func() {
		// Release with a fresh context so a cancelled request still unlocks.
		if ok, err := mutex.UnlockContext(context.Background()); !ok || err != nil {
			l.logger.WithFields(logrus.Fields{"lock": key, "ok": ok}).WithError(err).Warn("failed to release lock")
		}
	}()

	return fn(ctx)
}
