package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached wraps an embedding function with an LRU cache keyed by text and model.
type Cached struct {
	inner Func
	model string
	cache *lru.Cache[string, []float32]
}

func NewCached(inner Func, model string, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, _ := lru.New[string, []float32](size)
	return &Cached{
		inner: inner,
		model: model,
		cache: cache,
	}
}

func (c *Cached) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text + "\x00" + c.model))
	return hex.EncodeToString(hash[:])
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if vec, ok := c.cache.Get(key); ok {
		return clone(vec), nil
	}

	vec, err := c.inner(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, clone(vec))
	return vec, nil
}

func (c *Cached) Len() int {
	return c.cache.Len()
}

// chromem normalizes embeddings in place, so callers get their own copy.
func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
