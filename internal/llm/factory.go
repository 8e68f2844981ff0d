package llm

import (
	"fmt"
	"strings"
)

// NewBackend creates a new generation backend based on configuration.
// An empty provider returns (nil, nil): generation is disabled and callers
// fall back to extractive answers.
func NewBackend(config Config) (Backend, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case "openai":
		return NewOpenAIBackend(config)

	case "gemini", "google":
		return NewGeminiBackend(config)

	case "ollama":
		return NewOllamaBackend(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, gemini, ollama)", config.Provider)
	}
}
