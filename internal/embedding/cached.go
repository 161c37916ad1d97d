package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/cache"
	"github.com/rs/zerolog"
)

// CachedEmbedder consults a vector cache before calling the wrapped
// embedder. Cache errors are logged and otherwise ignored.
type CachedEmbedder struct {
	next   Embedder
	cache  cache.VectorCache
	model  string
	logger *zerolog.Logger
}

func NewCachedEmbedder(next Embedder, vectorCache cache.VectorCache, model string, logger *zerolog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		cache:  vectorCache,
		model:  model,
		logger: logger,
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return nil, ErrEmptyInput
	}

	key := CacheKey(c.model, normalized)

	vector, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Embedding cache lookup failed")
	}
	if ok {
		c.logger.Debug().Str("key", key).Msg("Embedding cache hit")
		return vector, nil
	}

	vector, err = c.next.Embed(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, vector); err != nil {
		c.logger.Warn().Err(err).Msg("Unable to store embedding in cache")
	}

	return vector, nil
}

func CacheKey(model string, normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return model + ":" + hex.EncodeToString(sum[:])
}
