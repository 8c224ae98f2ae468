package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisQueue(t *testing.T, opts ...Option) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, opts...), mr
}

func TestRedisQueue_PushAndDrain(t *testing.T) {
	q, mr := newRedisQueue(t, WithKey("test:intents"), WithIDGenerator(sequence()))
	ctx := context.Background()

	for _, p := range []string{"a", "b"} {
		if _, err := q.Push(ctx, buzz(p)); err != nil {
			t.Fatalf("push %s: %v", p, err)
		}
	}
	if l, err := q.Len(ctx); err != nil || l != 2 {
		t.Fatalf("expected length 2, got %d (%v)", l, err)
	}
	if !mr.Exists("test:intents") {
		t.Fatal("expected the configured key to be used")
	}

	got, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 2 || got[0].ID != "intent-1" || got[1].ID != "intent-2" {
		t.Fatalf("unexpected drain result: %+v", got)
	}
	if mr.Exists("test:intents") {
		t.Error("expected drain to delete the list")
	}

	again, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("expected empty second drain, got %d", len(again))
	}
}

func TestRedisQueue_Capacity(t *testing.T) {
	q, _ := newRedisQueue(t, WithCapacity(1))
	ctx := context.Background()

	if _, err := q.Push(ctx, buzz("a")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := q.Push(ctx, buzz("b")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
}

func TestRedisQueue_SkipsMalformedEntries(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx := context.Background()

	if _, err := mr.Push(defaultRedisKey, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := q.Push(ctx, buzz("a")); err != nil {
		t.Fatalf("push: %v", err)
	}
	got, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected the malformed entry to be skipped, got %d intents", len(got))
	}
}

func TestRedisQueue_Unavailable(t *testing.T) {
	q, mr := newRedisQueue(t)
	mr.Close()

	if _, err := q.Push(context.Background(), buzz("a")); err == nil {
		t.Error("expected push to fail when redis is down")
	}
	if _, err := q.Drain(context.Background()); err == nil {
		t.Error("expected drain to fail when redis is down")
	}
}
