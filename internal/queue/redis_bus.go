// Package queue holds the Redis plumbing shared by the grading
// aggregator, the AI grading worker and the progress WebSocket: one
// list used as the job queue and one pub/sub channel per exam.
package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ccccowo/imark-backend/internal/config"
)

// RedisBus implements the event surface over a Redis client.
type RedisBus struct {
	rdb *redis.Client
}

// NewRedisBus creates a RedisBus.
func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

// Enqueue pushes an AI grading job onto the work queue.
func (b *RedisBus) Enqueue(ctx context.Context, payload []byte) error {
	return b.rdb.LPush(ctx, config.AIGradingQueue, payload).Err()
}

// Dequeue blocks up to timeout for the next AI grading job. Returns
// redis.Nil when the wait times out with an empty queue.
func (b *RedisBus) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := b.rdb.BLPop(ctx, timeout, config.AIGradingQueue).Result()
	if err != nil {
		return nil, err
	}
	// BLPop returns [key, value].
	return []byte(res[1]), nil
}

// Publish broadcasts a grading progress event for one exam.
func (b *RedisBus) Publish(ctx context.Context, examID string, payload []byte) error {
	return b.rdb.Publish(ctx, config.GradingProgressChannel(examID), payload).Err()
}

// Subscribe returns a subscription to one exam's progress channel. The
// caller owns the subscription and must Close it.
func (b *RedisBus) Subscribe(ctx context.Context, examID string) *redis.PubSub {
	return b.rdb.Subscribe(ctx, config.GradingProgressChannel(examID))
}
