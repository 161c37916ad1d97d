package cache

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

type LRUVectorCache struct {
	entries *lru.Cache[string, []float32]
}

func NewLRUVectorCache(size int) (*LRUVectorCache, error) {
	entries, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("Unable to create LRU cache of size %d. Error: %w", size, err)
	}
	return &LRUVectorCache{entries: entries}, nil
}

func (c *LRUVectorCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	vector, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(vector), true, nil
}

func (c *LRUVectorCache) Set(_ context.Context, key string, vector []float32) error {
	c.entries.Add(key, slices.Clone(vector))
	return nil
}

func (c *LRUVectorCache) Len() int {
	return c.entries.Len()
}
