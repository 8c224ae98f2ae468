package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store with single-row tables game_state and
// settings (id = 1).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) LoadState(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM game_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return raw, nil
}

func (s *PostgresStore) SaveState(ctx context.Context, state []byte) error {
	if len(state) == 0 {
		return ErrEmptyState
	}
	const query = `INSERT INTO game_state (id, state, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, query, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadSettings(ctx context.Context) (Settings, error) {
	var out Settings
	err := s.pool.QueryRow(ctx, `SELECT join_url, password_hash FROM settings WHERE id = 1`).
		Scan(&out.JoinURL, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, settings Settings) error {
	const query = `INSERT INTO settings (id, join_url, password_hash, updated_at) VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET join_url = EXCLUDED.join_url,
			password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, query, settings.JoinURL, settings.PasswordHash); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
