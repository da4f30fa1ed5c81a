package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"lubricentro/backend/internal/domain"
)

type RedisPackageCache struct {
	client *redis.Client
}

func NewRedisPackageCache(addr string, password string, db int) *RedisPackageCache {
	return &RedisPackageCache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *RedisPackageCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisPackageCache) Close() error {
	return c.client.Close()
}

func (c *RedisPackageCache) Get(ctx context.Context, key string) ([]domain.ServicePackage, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var packages []domain.ServicePackage
	if err := json.Unmarshal(val, &packages); err != nil {
		return nil, false, err
	}
	return packages, true, nil
}

func (c *RedisPackageCache) Set(ctx context.Context, key string, value []domain.ServicePackage, ttl time.Duration) error {
	if len(value) == 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
