package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (SlotLocker, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlotLocker(client, 2*time.Second), mr, client
}

func TestSlotLockRuns(t *testing.T) {
	locker, _, _ := newTestLocker(t)

	ran := false
	err := locker.WithSlotLock(context.Background(), "Dr. Sarah Johnson|2030-06-03|09:00", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSlotLockContended(t *testing.T) {
	locker, mr, _ := newTestLocker(t)

	// Simulate another process holding the lock.
	require.NoError(t, mr.Set("lock:slot:Dr. Sarah Johnson|2030-06-03|09:00", "someone-else"))

	err := locker.WithSlotLock(context.Background(), "Dr. Sarah Johnson|2030-06-03|09:00", func(ctx context.Context) error {
		t.Fatal("must not run while lock is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestSlotLockReleasedAfterRun(t *testing.T) {
	locker, mr, _ := newTestLocker(t)

	key := "Dr. Sarah Johnson|2030-06-03|09:00"
	require.NoError(t, locker.WithSlotLock(context.Background(), key, func(ctx context.Context) error {
		return nil
	}))

	assert.False(t, mr.Exists("lock:slot:"+key))
}

func TestSlotLockDoesNotReleaseForeignToken(t *testing.T) {
	locker, mr, _ := newTestLocker(t)
	rl, ok := locker.(*redisSlotLocker)
	require.True(t, ok)

	require.NoError(t, mr.Set("lock:slot:k", "other-token"))
	require.NoError(t, rl.release(context.Background(), "lock:slot:k", "my-token"))
	assert.True(t, mr.Exists("lock:slot:k"))
}
