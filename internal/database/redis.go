package database

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/finsight/backend/internal/config"
)

// InitRedis connects to redis when configured. Returns nil when no
// host is configured or the server is unreachable; callers fall back
// to the in-process cache.
func InitRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
