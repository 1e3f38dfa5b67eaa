package cache

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis adapts a redis client to the Cache interface. Entries expire
// after ttl as a safety net; correctness still relies on explicit
// invalidation. Redis failures degrade to cache misses.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedis namespaces all keys under prefix (e.g. "categories:").
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, keyPrefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[CACHE] redis get failed for %s: %v", key, err)
		}
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, r.keyPrefix+key, value, r.ttl).Err(); err != nil {
		log.Printf("[CACHE] redis set failed for %s: %v", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = r.keyPrefix + k
	}
	if err := r.client.Del(ctx, namespaced...).Err(); err != nil {
		log.Printf("[CACHE] redis del failed: %v", err)
	}
}

func (r *Redis) DeletePrefix(ctx context.Context, prefix string) {
	pattern := r.keyPrefix + prefix + "*"
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("[CACHE] redis scan failed for %s: %v", pattern, err)
		return
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			log.Printf("[CACHE] redis del failed: %v", err)
		}
	}
}
