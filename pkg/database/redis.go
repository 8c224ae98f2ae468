package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/quizlive/pkg/logger"
)

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Get().Named("database").Info(ctx, "redis client connected", logger.String("addr", addr))
	return rdb, nil
}
