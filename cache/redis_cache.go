package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap/zapcore"

	"cfanalytics/logger"
)

type RedisCache struct {
	client *redis.Client
	logger *logger.LogStreamer
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCache(client *redis.Client, log *logger.LogStreamer) *RedisCache {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisCache{client: client, logger: log}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		r.log(zapcore.ErrorLevel, "Cache set failed", key, err)
		return fmt.Errorf("failed to set key %s in cache: %w", key, err)
	}
	r.logger.Log(zapcore.DebugLevel, "", "Cache set", map[string]any{"key": key, "ttl": expiration.String()}, "CACHE", nil)
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.log(zapcore.DebugLevel, "Cache miss", key, nil)
		return nil, false, nil
	}
	if err != nil {
		r.log(zapcore.ErrorLevel, "Cache get failed", key, err)
		return nil, false, fmt.Errorf("failed to get key %s from cache: %w", key, err)
	}
	r.log(zapcore.DebugLevel, "Cache hit", key, nil)
	return val, true, nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Log(zapcore.ErrorLevel, "", "Cache delete failed", map[string]any{"keys": keys}, "CACHE", err)
		return fmt.Errorf("failed to delete keys %v from cache: %w", keys, err)
	}
	return nil
}

func (r *RedisCache) log(level zapcore.Level, msg, key string, err error) {
	r.logger.Log(level, "", msg, map[string]any{"key": key}, "CACHE", err)
}
