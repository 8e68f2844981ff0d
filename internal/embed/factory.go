package embed

import (
	"fmt"
	"strings"

	"github.com/credilex/parecer/internal/cache"
	"github.com/credilex/parecer/internal/model"
)

// embedMaxAttempts is the total attempt count for transient provider failures
const embedMaxAttempts = 3

// NewEmbedder creates an embedding backend based on the provider name.
// Unlike generation, embeddings cannot be disabled: retrieval needs vectors.
func NewEmbedder(config Config) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case "openai":
		return NewOpenAIEmbedder(config)
	case "ollama":
		return NewOllamaEmbedder(config)
	case "":
		return nil, fmt.Errorf("embedding provider is required (supported: openai, ollama)")
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// New builds the embedding stack from service configuration: the provider
// backend, retry on transient failures, and the vector cache when enabled.
func New(modelConfig model.EmbeddingsConfig, c cache.Cache) (Embedder, error) {
	backend, err := NewEmbedder(ConfigFromModel(modelConfig))
	if err != nil {
		return nil, err
	}
	embedder := WithRetry(backend, embedMaxAttempts)
	return WithCache(embedder, modelConfig.Model, c, modelConfig.CacheTTL), nil
}
