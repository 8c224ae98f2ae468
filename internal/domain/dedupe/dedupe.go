// Package dedupe guards the host against applying the same intent twice.
//
// The intent channel drains destructively, so a replay only happens when a
// client re-pushes an intent it already sent or a store hands back a batch
// it had already returned. Remembering the last N intent ids is enough.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 10000

// Deduper records seen intent ids.
type Deduper interface {
	// SeenAndRecord reports whether id was seen before and records it if not.
	// Empty ids are never recorded and always report false.
	SeenAndRecord(ctx context.Context, id string) bool

	// Size returns the number of remembered ids.
	Size() int
}

type node struct {
	id   string
	next *node
}

// inMemoryDeduper keeps ids in a singly linked list in insertion order and
// evicts from the head (oldest) once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	head    *node // oldest
	tail    *node // newest
	maxSize int
}

// NewInMemoryDeduper creates a bounded deduper. maxSize <= 0 disables
// eviction.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	n := &node{id: id}
	if d.tail == nil {
		d.head = n
	} else {
		d.tail.next = n
	}
	d.tail = n
	d.seen[id] = struct{}{}
	return false
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.head == nil {
		return
	}
	delete(d.seen, d.head.id)
	d.head = d.head.next
	if d.head == nil {
		d.tail = nil
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
