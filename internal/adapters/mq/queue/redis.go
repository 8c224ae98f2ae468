package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/quizlive/pkg/metrics"
)

// pushScript appends ARGV[1] unless the list already holds ARGV[2] items.
// A capacity of 0 disables the bound.
var pushScript = redis.NewScript(`
local cap = tonumber(ARGV[2])
if cap > 0 and redis.call('LLEN', KEYS[1]) >= cap then
	return -1
end
return redis.call('RPUSH', KEYS[1], ARGV[1])
`)

// RedisQueue implements Queue on a Redis list. Push is RPUSH; Drain reads
// and deletes the list inside one MULTI/EXEC.
type RedisQueue struct {
	base
	client redis.UniversalClient
}

// NewRedisQueue creates a Redis-backed intent queue.
func NewRedisQueue(client redis.UniversalClient, opts ...Option) *RedisQueue {
	return &RedisQueue{base: newBase(opts), client: client}
}

// Push appends an intent as a JSON document.
func (q *RedisQueue) Push(ctx context.Context, in Intent) (Intent, error) {
	in, err := q.stamp(in)
	if err != nil {
		metrics.RecordErrorByComponent("queue", "invalid_intent")
		return Intent{}, err
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return Intent{}, fmt.Errorf("marshal intent: %w", err)
	}
	capacity := q.capacity
	if capacity < 0 {
		capacity = 0
	}
	n, err := pushScript.Run(ctx, q.client, []string{q.key}, raw, capacity).Int64()
	if err != nil {
		metrics.RecordErrorByComponent("queue", "redis_push")
		return Intent{}, fmt.Errorf("redis push: %w", err)
	}
	if n < 0 {
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return Intent{}, ErrFull
	}
	metrics.RecordIntentPushed(string(in.Type))
	metrics.UpdateIntentQueueLength(int(n))
	return in, nil
}

// Drain returns and deletes every queued intent atomically. Entries that do
// not decode are skipped.
func (q *RedisQueue) Drain(ctx context.Context) ([]Intent, error) {
	var lrange *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, q.key, 0, -1)
		pipe.Del(ctx, q.key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordErrorByComponent("queue", "redis_drain")
		return nil, fmt.Errorf("redis drain: %w", err)
	}

	items := lrange.Val()
	out := make([]Intent, 0, len(items))
	for _, item := range items {
		var in Intent
		if err := json.Unmarshal([]byte(item), &in); err != nil {
			metrics.RecordIntentRejected("malformed")
			continue
		}
		out = append(out, in)
	}
	metrics.RecordIntentsDrained(len(out))
	metrics.UpdateIntentQueueLength(0)
	return out, nil
}

// Len returns LLEN of the queue key.
func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen: %w", err)
	}
	return int(n), nil
}

// Close is a no-op; the client is owned by the caller.
func (q *RedisQueue) Close() error { return nil }
