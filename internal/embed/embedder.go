// Package embed turns text into vectors for similarity search.
// Backends mirror the llm package: one file per provider, a factory
// switch, and decorators for caching and retries.
package embed

import (
	"context"
	"strings"
	"time"

	"github.com/credilex/parecer/internal/model"
)

// Mode tells instruction-tuned embedding models whether the text is a
// document being indexed or a query being searched.
type Mode string

const (
	// ModePassage marks text that will be stored and searched against
	ModePassage Mode = "passage"

	// ModeQuery marks text used to search stored passages
	ModeQuery Mode = "query"
)

// Embedder converts texts into fixed-size vectors
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)

	// Dimensions returns the vector size this embedder produces
	Dimensions() int
}

// Config holds configuration for an embedding backend
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	Timeout    int // seconds
}

// ConfigFromModel converts the service-level embeddings configuration
func ConfigFromModel(modelConfig model.EmbeddingsConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Dimensions: modelConfig.Dimensions,
		Timeout:    int(modelConfig.Timeout / time.Second),
	}
}

// isE5Model reports whether the model expects "query: "/"passage: " prefixes.
// E5-family models are trained with these instruction prefixes and retrieval
// quality degrades without them. Decided once at construction.
func isE5Model(modelName string) bool {
	return strings.Contains(strings.ToLower(modelName), "e5")
}

// prepareTexts trims each text and applies the E5 instruction prefix when the
// backend was built for an E5-family model
func prepareTexts(texts []string, mode Mode, e5Prefix bool) []string {
	prepared := make([]string, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if e5Prefix {
			text = string(mode) + ": " + text
		}
		prepared[i] = text
	}
	return prepared
}
