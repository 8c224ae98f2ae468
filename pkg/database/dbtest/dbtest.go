// Package dbtest starts throwaway Postgres containers for integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/okian/quizlive/pkg/database"
)

const image = "postgres:16-alpine"

// StartPostgres runs a migrated Postgres container and returns a pool to
// it. Both are torn down when the test ends.
func StartPostgres(tb testing.TB) *pgxpool.Pool {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("quizlive"),
		postgres.WithUsername("quizlive"),
		postgres.WithPassword("quizlive"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		tb.Fatalf("start postgres container: %v", err)
	}
	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			tb.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("postgres dsn: %v", err)
	}
	pool, err := database.NewPostgresPool(ctx, dsn, 4)
	if err != nil {
		tb.Fatalf("connect postgres: %v", err)
	}
	tb.Cleanup(pool.Close)
	if err := database.Migrate(ctx, pool); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return pool
}
