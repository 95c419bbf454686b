package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

// Cached wraps an Embedder with an LRU cache keyed by the SHA-256 of the
// input text, so repeated lookups for the same description cost one provider
// call per run. The underlying lru cache is safe for concurrent use, which
// is required because pairwise scoring runs on parallel workers.
type Cached struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached wraps the provided embedder. size <= 0 falls back to a default.
func NewCached(inner Embedder, size int) *Cached {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		// Only reachable with a non-positive size, which is handled above.
		cache, _ = lru.New[string, []float32](defaultCacheSize)
	}
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := hashText(text)
	if vec, ok := c.cache.Get(key); ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	stored := make([]float32, len(vec))
	copy(stored, vec)
	c.cache.Add(key, stored)

	return vec, nil
}

func (c *Cached) Provider() string {
	return c.inner.Provider()
}

// Size returns the number of cached vectors.
func (c *Cached) Size() int {
	return c.cache.Len()
}

func hashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
