package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/metrics"
)

const redisKeyPrefix = "sabacc:session:"

// redisClient - часть go-redis, которой пользуется хранилище
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// хранит столы в redis как JSON с TTL, продлеваемым при каждой записи
type RedisSessionStore struct {
	rdb redisClient
	ttl time.Duration
}

func NewRedisSessionStore(rdb redisClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

// OpenRedis подключается по URL и проверяет соединение
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Load возвращает nil, nil если стола под ключом нет
func (r *RedisSessionStore) Load(ctx context.Context, key string) (*game.Session, error) {
	defer metrics.ObserveStore("redis", "load", time.Now())

	raw, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeSession(raw)
}

func (r *RedisSessionStore) Save(ctx context.Context, key string, s *game.Session) error {
	defer metrics.ObserveStore("redis", "save", time.Now())

	raw, err := encodeSession(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, key string) error {
	defer metrics.ObserveStore("redis", "delete", time.Now())

	if err := r.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
