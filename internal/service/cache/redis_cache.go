package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	cli    *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return NewRedisCacheFromClient(rdb, cfg.Prefix)
}

func NewRedisCacheFromClient(cli *redis.Client, prefix string) *RedisCache {
	return &RedisCache{cli: cli, prefix: prefix}
}

func (r *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.cli.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error { return r.cli.Ping(ctx).Err() }

func (r *RedisCache) Close() error { return r.cli.Close() }

var _ BytesCache = (*RedisCache)(nil)
