package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kautilyadevaraj/univault/pkg/debug"
	"github.com/kautilyadevaraj/univault/pkg/observability"
)

// DefaultCacheSize is used when NewCached is given a non-positive size.
const DefaultCacheSize = 1024

// Cached is a Provider that memoizes another Provider in an LRU cache.
// Failed lookups and empty vectors are never cached.
type Cached struct {
	next  Provider
	model string
	cache *lru.Cache[string, []float32]
}

// NewCached wraps next. The model name is part of the cache key so that a
// model switch never serves stale vectors.
func NewCached(next Provider, model string, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cached{next: next, model: model, cache: cache}
}

// Embed returns a copy of the cached vector or asks the wrapped provider.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	text = NormalizeText(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	key := cacheKey(c.model, text)
	if vec, ok := c.cache.Get(key); ok {
		observability.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		debug.Log("embedding", "cache hit", "key", key[:12])
		return clone(vec), nil
	}
	observability.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err := c.next.Embed(ctx, text)
	if err != nil || len(vec) == 0 {
		return vec, err
	}
	c.cache.Add(key, clone(vec))
	debug.Log("embedding", "cache store", "key", key[:12], "size", c.cache.Len())
	return vec, nil
}

// Dimensions delegates to the wrapped provider.
func (c *Cached) Dimensions() int {
	return c.next.Dimensions()
}

func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
