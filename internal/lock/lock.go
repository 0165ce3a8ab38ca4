// Package lock provides the mutual exclusion the segmentation engine
// needs: at most one extraction batch per exam, across all instances.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a best-effort distributed mutex keyed by string.
type Locker interface {
	// TryAcquire takes the lock if free. Returns false if it is held.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the lock. Safe to call on an expired lock.
	Release(ctx context.Context, key string) error
}

// RedisLocker implements Locker with SET NX EX. The TTL bounds how long
// a crashed instance can hold an exam's segmentation slot.
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker creates a RedisLocker.
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, 1, ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}
