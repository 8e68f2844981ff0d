package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/credilex/parecer/internal/cache"
)

// CachedEmbedder wraps an Embedder with per-text vector caching. Repeated
// ingestion of the same chunks and repeated questions skip the provider call.
type CachedEmbedder struct {
	inner Embedder
	model string
	cache cache.Cache
	ttl   time.Duration
}

// WithCache wraps an embedder with a cache. A nil cache returns the inner
// embedder unchanged.
func WithCache(inner Embedder, modelName string, c cache.Cache, ttl time.Duration) Embedder {
	if c == nil {
		return inner
	}
	return &CachedEmbedder{
		inner: inner,
		model: modelName,
		cache: c,
		ttl:   ttl,
	}
}

// Name returns the wrapped embedder's provider name
func (e *CachedEmbedder) Name() string {
	return e.inner.Name()
}

// Dimensions returns the wrapped embedder's vector size
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Embed serves each text from cache when possible and batches the misses
// into a single inner call, preserving input order in the result.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIndex []int

	for i, text := range texts {
		data, found := e.cache.Get(e.key(text, mode))
		if found {
			var vector []float32
			if err := json.Unmarshal(data, &vector); err == nil && len(vector) > 0 {
				vectors[i] = vector
				continue
			}
		}
		missing = append(missing, text)
		missingIndex = append(missingIndex, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := e.inner.Embed(ctx, missing, mode)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missing))
	}

	for j, vector := range fresh {
		vectors[missingIndex[j]] = vector
		if data, err := json.Marshal(vector); err == nil {
			_ = e.cache.Set(e.key(missing[j], mode), data, e.ttl)
		}
	}
	return vectors, nil
}

func (e *CachedEmbedder) key(text string, mode Mode) string {
	return cache.Key("embed", e.inner.Name(), e.model, string(mode), text)
}
