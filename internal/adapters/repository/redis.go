package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	defaultStateKey    = "quizlive:state"
	defaultSettingsKey = "quizlive:settings"

	fieldJoinURL      = "join_url"
	fieldPasswordHash = "password_hash"
)

// RedisStore implements Store with a string key for the snapshot and a hash
// for the settings.
type RedisStore struct {
	client      redis.UniversalClient
	stateKey    string
	settingsKey string
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	s := &RedisStore{
		client:      client,
		stateKey:    defaultStateKey,
		settingsKey: defaultSettingsKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) LoadState(ctx context.Context) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get state: %w", err)
	}
	return raw, nil
}

func (s *RedisStore) SaveState(ctx context.Context, state []byte) error {
	if len(state) == 0 {
		return ErrEmptyState
	}
	if err := s.client.Set(ctx, s.stateKey, state, 0).Err(); err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadSettings(ctx context.Context) (Settings, error) {
	vals, err := s.client.HGetAll(ctx, s.settingsKey).Result()
	if err != nil {
		return Settings{}, fmt.Errorf("redis get settings: %w", err)
	}
	return Settings{JoinURL: vals[fieldJoinURL], PasswordHash: vals[fieldPasswordHash]}, nil
}

func (s *RedisStore) SaveSettings(ctx context.Context, settings Settings) error {
	err := s.client.HSet(ctx, s.settingsKey,
		fieldJoinURL, settings.JoinURL,
		fieldPasswordHash, settings.PasswordHash,
	).Err()
	if err != nil {
		return fmt.Errorf("redis save settings: %w", err)
	}
	return nil
}
