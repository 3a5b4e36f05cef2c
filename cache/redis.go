package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"friendspark/config"
	"friendspark/log"
)

// NewClient connects to redis and checks the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	log.Info(ctx, "connected to redis", slog.String("addr", cfg.Addr))
	return rdb, nil
}
