package llm

import (
	"context"
	"time"

	"github.com/credilex/parecer/internal/model"
)

// Backend defines the interface for text-generation providers
type Backend interface {
	// Name returns the provider name
	Name() string

	// Generate produces a completion for the given prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds generation provider configuration
type Config struct {
	// Provider name: "openai", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Timeout for API requests
	Timeout int // seconds
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		MaxTokens:   160,
		Temperature: 0.2,
		Timeout:     60,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:    modelConfig.Provider,
		Model:       modelConfig.Model,
		APIKey:      modelConfig.APIKey,
		BaseURL:     modelConfig.BaseURL,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		Timeout:     int(modelConfig.Timeout / time.Second),
	}
}
