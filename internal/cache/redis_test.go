package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisVectorCache) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, NewRedisVectorCache(client, "embedding:", time.Hour)
}

func TestRedisVectorCache_Miss(t *testing.T) {
	_, c := newTestRedis(t)

	vector, ok, err := c.Get(context.Background(), "absent")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, vector)
}

func TestRedisVectorCache_SetThenGet(t *testing.T) {
	server, c := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "m:abc", []float32{0.5, -1, 2}))

	vector, ok, err := c.Get(ctx, "m:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.5, -1, 2}, vector)

	assert.True(t, server.Exists("embedding:m:abc"))
	assert.Equal(t, time.Hour, server.TTL("embedding:m:abc"))
}

func TestRedisVectorCache_Expiry(t *testing.T) {
	server, c := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []float32{1}))
	server.FastForward(2 * time.Hour)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisVectorCache_CorruptValue(t *testing.T) {
	server, c := newTestRedis(t)
	require.NoError(t, server.Set("embedding:bad", "abc"))

	_, ok, err := c.Get(context.Background(), "bad")

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisVectorCache_ServerErrors(t *testing.T) {
	server, c := newTestRedis(t)
	ctx := context.Background()
	server.SetError("LOADING Redis is loading the dataset in memory")

	_, ok, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, c.Set(ctx, "k", []float32{1}))
}
