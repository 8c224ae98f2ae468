//go:build integration

package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/quizlive/pkg/database/dbtest"
	"github.com/okian/quizlive/pkg/logger"
)

func TestPostgresQueue(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("logger: %v", err)
	}
	pool := dbtest.StartPostgres(t)
	ctx := context.Background()

	q := NewPostgresQueue(pool, WithCapacity(3))
	for _, p := range []string{"a", "b", "c"} {
		if _, err := q.Push(ctx, buzz(p)); err != nil {
			t.Fatalf("push %s: %v", p, err)
		}
	}
	if _, err := q.Push(ctx, buzz("d")); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	if n, err := q.Len(ctx); err != nil || n != 3 {
		t.Fatalf("expected 3 rows, got %d (%v)", n, err)
	}

	got, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		p, err := got[i].DecodePlayer()
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if p.PlayerID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, p.PlayerID)
		}
	}

	again, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("expected empty second drain, got %d", len(again))
	}
}
