package sync

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunLock(t *testing.T, ttl time.Duration) (*RunLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRunLock(client, ttl), mr
}

func TestRunLockAcquireRelease(t *testing.T) {
	lock, _ := testRunLock(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, lock.Acquire(ctx, "run-1"))
	assert.ErrorIs(t, lock.Acquire(ctx, "run-2"), ErrSyncInProgress)

	require.NoError(t, lock.Release(ctx, "run-1"))
	assert.NoError(t, lock.Acquire(ctx, "run-3"))
}

func TestRunLockReleaseByNonOwnerIsNoop(t *testing.T) {
	lock, _ := testRunLock(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, lock.Acquire(ctx, "run-1"))
	require.NoError(t, lock.Release(ctx, "run-2"))

	// run-1 still holds the lock.
	assert.ErrorIs(t, lock.Acquire(ctx, "run-3"), ErrSyncInProgress)
}

func TestRunLockExpires(t *testing.T) {
	lock, mr := testRunLock(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, lock.Acquire(ctx, "run-1"))
	mr.FastForward(2 * time.Minute)

	// A crashed run cannot wedge the lock past its TTL.
	assert.NoError(t, lock.Acquire(ctx, "run-2"))
}

func TestRunLockReleaseWithoutAcquire(t *testing.T) {
	lock, _ := testRunLock(t, time.Minute)
	assert.NoError(t, lock.Release(context.Background(), "run-1"))
}

func TestRunLockNilIsNoop(t *testing.T) {
	var lock *RunLock
	ctx := context.Background()
	assert.NoError(t, lock.Acquire(ctx, "run-1"))
	assert.NoError(t, lock.Release(ctx, "run-1"))
}
