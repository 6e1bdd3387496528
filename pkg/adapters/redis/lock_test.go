package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/adapters/redis"
	"github.com/aretw0/pathway/pkg/ports/tests"
)

func TestRedisLocker_Contract(t *testing.T) {
	_, client := newRedis(t)
	tests.LockerContract(t, redis.NewLocker(client, "test:"))
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newRedis(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "m:u", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:m:u"), "lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:m:u"), "lock key should be removed after unlock")
}

func TestRedisLocker_ExpiredHolderCannotRelease(t *testing.T) {
	mr, client := newRedis(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := locker.Lock(ctx, "k", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("test:lock:k"), "a stale unlock must not free the new holder's lock")
	require.NoError(t, fresh(ctx))
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newRedis(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := first.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	unlock2, err := second.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	assert.NoError(t, unlock2(ctx))
}
