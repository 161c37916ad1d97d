package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorEncoding(t *testing.T) {
	vector := []float32{0, -1.5, 3.25, 1e-7}

	decoded, err := decodeVector(encodeVector(vector))

	require.NoError(t, err)
	assert.Equal(t, vector, decoded)
}

func TestDecodeVector_BadLength(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestLRUVectorCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUVectorCache(2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", []float32{1}))
	require.NoError(t, c.Set(ctx, "b", []float32{2}))

	// touch "a" so "b" is the eviction candidate
	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Set(ctx, "c", []float32{3}))

	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	got, ok, _ := c.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, []float32{3}, got)
}

func TestLRUVectorCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUVectorCache(1)
	require.NoError(t, err)

	original := []float32{1, 2}
	require.NoError(t, c.Set(ctx, "k", original))
	original[0] = 99

	got, _, _ := c.Get(ctx, "k")
	got[1] = 42

	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []float32{1, 2}, again)
}

func TestNewLRUVectorCache_InvalidSize(t *testing.T) {
	_, err := NewLRUVectorCache(0)
	assert.Error(t, err)
}
