// Package queue implements the intent channel: an append-only sink that
// participants push into and the host drains destructively.
//
// Drain atomically returns every queued intent in arrival order and empties
// the sink, so an intent is handed to the host at most once.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 10000
	defaultRedisKey = "quizlive:intents"
)

// Intent is the payload type flowing through the queue.
type Intent = model.Intent

// Queue is the intent channel contract.
type Queue interface {
	// Push stamps the intent with an id and created_at and appends it.
	Push(ctx context.Context, in Intent) (Intent, error)

	// Drain returns all queued intents in arrival order and empties the
	// queue in the same operation.
	Drain(ctx context.Context) ([]Intent, error)

	// Len returns the number of queued intents.
	Len(ctx context.Context) (int, error)

	// Close releases resources. Pushes after Close fail with ErrClosed.
	Close() error
}

// base carries settings shared by every implementation.
type base struct {
	capacity int
	clock    clockwork.Clock
	newID    func() string
	key      string
}

func newBase(opts []Option) base {
	b := base{
		capacity: defaultCapacity,
		clock:    clockwork.NewRealClock(),
		newID:    uuid.NewString,
		key:      defaultRedisKey,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// stamp validates the intent and assigns channel-owned fields.
func (b *base) stamp(in Intent) (Intent, error) {
	if !in.Type.Valid() {
		return Intent{}, fmt.Errorf("%w: type %q", ErrInvalidIntent, in.Type)
	}
	if len(in.Payload) == 0 {
		return Intent{}, fmt.Errorf("%w: empty payload", ErrInvalidIntent)
	}
	in.ID = b.newID()
	in.CreatedAt = b.clock.Now().UTC()
	return in, nil
}

func (b *base) full(n int) bool {
	return b.capacity > 0 && n >= b.capacity
}

// InMemoryQueue implements Queue with a mutex-guarded slice. It serves a
// single-process deployment where the relay and the host share memory.
type InMemoryQueue struct {
	base
	mu      sync.Mutex
	intents []Intent
	closed  bool
}

// NewInMemoryQueue creates an in-memory intent queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{base: newBase(opts)}
	metrics.UpdateIntentQueueLength(0)
	return q
}

// Push appends an intent.
func (q *InMemoryQueue) Push(_ context.Context, in Intent) (Intent, error) {
	in, err := q.stamp(in)
	if err != nil {
		metrics.RecordErrorByComponent("queue", "invalid_intent")
		return Intent{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return Intent{}, ErrClosed
	}
	if q.full(len(q.intents)) {
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return Intent{}, ErrFull
	}
	q.intents = append(q.intents, in)
	metrics.RecordIntentPushed(string(in.Type))
	metrics.UpdateIntentQueueLength(len(q.intents))
	return in, nil
}

// Drain swaps out the whole slice under the lock.
func (q *InMemoryQueue) Drain(_ context.Context) ([]Intent, error) {
	q.mu.Lock()
	out := q.intents
	q.intents = nil
	q.mu.Unlock()

	metrics.RecordIntentsDrained(len(out))
	metrics.UpdateIntentQueueLength(0)
	if out == nil {
		out = []Intent{}
	}
	return out, nil
}

// Len returns the number of queued intents.
func (q *InMemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.intents), nil
}

// Close marks the queue closed. Queued intents can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
