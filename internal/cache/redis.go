package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisVectorCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisVectorCache(client *redis.Client, prefix string, ttl time.Duration) *RedisVectorCache {
	return &RedisVectorCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisVectorCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Unable to read cached embedding. Error: %w", err)
	}

	vector, err := decodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

func (c *RedisVectorCache) Set(ctx context.Context, key string, vector []float32) error {
	if err := c.client.Set(ctx, c.prefix+key, encodeVector(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("Unable to cache embedding. Error: %w", err)
	}
	return nil
}
