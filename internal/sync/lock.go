package sync

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSyncInProgress indicates another sync run holds the lock.
var ErrSyncInProgress = errors.New("a sync run is already in progress")

const lockKey = "salesdash:sync:lock"

// RunLock serializes sync runs across processes via a redis key with a TTL,
// so a crashed run cannot wedge the lock forever.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunLock constructs a run lock.
func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{client: client, ttl: ttl}
}

// Acquire takes the lock for the given run id, failing fast when another run
// holds it.
func (l *RunLock) Acquire(ctx context.Context, runID string) error {
	if l == nil || l.client == nil {
		return nil
	}
	ok, err := l.client.SetNX(ctx, lockKey, runID, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSyncInProgress
	}
	return nil
}

// Release frees the lock if this run still owns it.
func (l *RunLock) Release(ctx context.Context, runID string) error {
	if l == nil || l.client == nil {
		return nil
	}
	owner, err := l.client.Get(ctx, lockKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	if owner != runID {
		return nil
	}
	return l.client.Del(ctx, lockKey).Err()
}
