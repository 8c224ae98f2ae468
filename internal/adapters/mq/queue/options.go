package queue

import (
	"github.com/jonboulle/clockwork"
)

// Option applies a configuration option to any queue implementation.
type Option func(*base)

// WithCapacity bounds the number of queued intents. Push beyond it fails
// with ErrFull. Zero or negative means unbounded.
func WithCapacity(capacity int) Option {
	return func(b *base) {
		b.capacity = capacity
	}
}

// WithClock sets the clock used to stamp created_at.
func WithClock(clock clockwork.Clock) Option {
	return func(b *base) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithIDGenerator overrides intent id generation.
func WithIDGenerator(fn func() string) Option {
	return func(b *base) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithKey sets the Redis list key (Redis only).
func WithKey(key string) Option {
	return func(b *base) {
		if key != "" {
			b.key = key
		}
	}
}
