package redislock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"campusconnect/pkg/redislock"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocker(t *testing.T) (*redislock.Locker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return redislock.New(client, logger), mr
}

func TestWithLock_ReleasesAfterRun(t *testing.T) {
	locker, mr := setupLocker(t)
	ctx := context.Background()

	err := locker.WithLock(ctx, "lock:checkout:cust-1", time.Second, func(ctx context.Context) error {
		assert.True(t, mr.Exists("lock:checkout:cust-1"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:checkout:cust-1"))
}

func TestWithLock_PropagatesError(t *testing.T) {
	locker, mr := setupLocker(t)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "lock:checkout:cust-1", time.Second, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:checkout:cust-1"))
}

func TestWithLock_SerialisesHolders(t *testing.T) {
	locker, _ := setupLocker(t)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(ctx, "lock:checkout:cust-1", 5*time.Second, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestWithLock_NotAcquiredWhileHeld(t *testing.T) {
	locker, mr := setupLocker(t)
	require.NoError(t, mr.Set("lock:checkout:cust-1", "someone-else"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	ran := false
	err := locker.WithLock(ctx, "lock:checkout:cust-1", time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, redislock.ErrNotAcquired)
	assert.False(t, ran)
	assert.True(t, mr.Exists("lock:checkout:cust-1"))
}
