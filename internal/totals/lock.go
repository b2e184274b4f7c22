package totals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL    = 30 * time.Second
	lockRetryInterval = 50 * time.Millisecond
)

// lockStore defines the Redis operations used by the snapshot lock.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// snapshotLock serializes read-modify-write cycles on the totals snapshot
// using Redis SETNX + TTL. One instance guards one cycle; it is not reused.
type snapshotLock struct {
	client lockStore
	key    string
	ttl    time.Duration
	owner  string
}

func newSnapshotLock(client lockStore, key string, ttl time.Duration) (*snapshotLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &snapshotLock{client: client, key: key, ttl: ttl}, nil
}

// acquire tries once to own the lock for the configured TTL.
func (l *snapshotLock) acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// acquireWait retries acquisition until wait elapses or the context ends.
// Webhook handlers contend briefly; losing every retry is a dependency
// failure the provider will redeliver past.
func (l *snapshotLock) acquireWait(ctx context.Context, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.acquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("totals lock busy")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// release frees the lock only if the owner value still matches.
func (l *snapshotLock) release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
