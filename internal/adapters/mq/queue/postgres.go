package queue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/pkg/metrics"
)

// PostgresQueue implements Queue on the intents table. Arrival order is the
// serial seq column; Drain is a single DELETE ... RETURNING statement.
type PostgresQueue struct {
	base
	pool *pgxpool.Pool
}

// NewPostgresQueue creates a Postgres-backed intent queue. The schema comes
// from pkg/database migrations.
func NewPostgresQueue(pool *pgxpool.Pool, opts ...Option) *PostgresQueue {
	return &PostgresQueue{base: newBase(opts), pool: pool}
}

// Push inserts an intent row. The capacity check and the insert share one
// statement.
func (q *PostgresQueue) Push(ctx context.Context, in Intent) (Intent, error) {
	in, err := q.stamp(in)
	if err != nil {
		metrics.RecordErrorByComponent("queue", "invalid_intent")
		return Intent{}, err
	}
	const query = `INSERT INTO intents (id, type, payload, created_at)
		SELECT $1::text, $2::text, $3::jsonb, $4::timestamptz
		WHERE $5::int <= 0 OR (SELECT COUNT(*) FROM intents) < $5::int`
	tag, err := q.pool.Exec(ctx, query, in.ID, string(in.Type), []byte(in.Payload), in.CreatedAt, q.capacity)
	if err != nil {
		metrics.RecordErrorByComponent("queue", "postgres_push")
		return Intent{}, fmt.Errorf("insert intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return Intent{}, ErrFull
	}
	metrics.RecordIntentPushed(string(in.Type))
	return in, nil
}

// Drain deletes and returns every row in arrival order.
func (q *PostgresQueue) Drain(ctx context.Context) ([]Intent, error) {
	const query = `WITH drained AS (
			DELETE FROM intents RETURNING seq, id, type, payload, created_at
		)
		SELECT id, type, payload, created_at FROM drained ORDER BY seq`
	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		metrics.RecordErrorByComponent("queue", "postgres_drain")
		return nil, fmt.Errorf("drain intents: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Intent, error) {
		var (
			in      Intent
			kind    string
			payload []byte
		)
		if err := row.Scan(&in.ID, &kind, &payload, &in.CreatedAt); err != nil {
			return Intent{}, err
		}
		in.Type = model.IntentType(kind)
		in.Payload = payload
		return in, nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("queue", "postgres_drain")
		return nil, fmt.Errorf("scan intents: %w", err)
	}
	metrics.RecordIntentsDrained(len(out))
	metrics.UpdateIntentQueueLength(0)
	return out, nil
}

// Len counts queued rows.
func (q *PostgresQueue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM intents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count intents: %w", err)
	}
	return n, nil
}

// Close is a no-op; the pool is owned by the caller.
func (q *PostgresQueue) Close() error { return nil }
