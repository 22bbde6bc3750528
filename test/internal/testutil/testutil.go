// Package testutil 建立指向測試專用 Postgres (5433) 與 Redis (6380) 的連線。
package testutil

import (
	"context"
	"fmt"

	"eventrix-booking/config"
	"eventrix-booking/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Setup 同時連上測試 DB 與測試 Redis，cleanup 一次關閉兩者
func Setup() (*pgxpool.Pool, *redis.Client, func(), error) {
	cfg := config.LoadTestConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect test database: %w", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect test redis: %w", err)
	}

	cleanup := func() {
		pool.Close()
		rdb.Close()
	}
	return pool, rdb, cleanup, nil
}

// SetupRedisOnly 只連測試 Redis，queue 和 cache 的整合測試用
func SetupRedisOnly() (*redis.Client, func(), error) {
	cfg := config.LoadTestConfig()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect test redis: %w", err)
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping test redis: %w", err)
	}
	return rdb, func() { rdb.Close() }, nil
}
