package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiBackend implements the Backend interface for Google Gemini models.
// The SDK client is created on first use so that constructing the backend
// never touches the network.
type GeminiBackend struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGeminiBackend creates a new Gemini generation backend
func NewGeminiBackend(config Config) (*GeminiBackend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	model := config.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 160
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &GeminiBackend{
		apiKey:      config.APIKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
		timeout:     timeout,
	}, nil
}

// Name returns the provider name
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// ensureClient initializes the SDK client once. The error is sticky: a failed
// init is returned to every subsequent caller.
func (b *GeminiBackend) ensureClient() (*genai.Client, error) {
	b.initOnce.Do(func() {
		b.client, b.initErr = genai.NewClient(context.Background(), option.WithAPIKey(b.apiKey))
	})
	return b.client, b.initErr
}

// IsAvailable checks if the provider is properly configured
func (b *GeminiBackend) IsAvailable(ctx context.Context) bool {
	client, err := b.ensureClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gemini client init failed: %v\n", err)
		return false
	}

	// Simple check: try to list models (lightweight API call)
	it := client.ListModels(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		fmt.Fprintf(os.Stderr, "Gemini API check failed: %v\n", err)
		return false
	}
	return true
}

// Generate produces a completion using Gemini's GenerateContent API
func (b *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := b.ensureClient()
	if err != nil {
		return "", fmt.Errorf("%w: gemini client init failed: %v", ErrUnavailable, err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	model := client.GenerativeModel(b.model)
	model.SetMaxOutputTokens(int32(b.maxTokens))
	model.SetTemperature(b.temperature)

	resp, err := model.GenerateContent(ctxWithTimeout, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := firstCandidateText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no text candidates", ErrUnavailable)
	}

	return text, nil
}

// firstCandidateText concatenates the text parts of the first candidate
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return strings.TrimSpace(sb.String())
}

// classifyGeminiError maps Google API error codes to sentinel errors
func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return ClassifyStatus("gemini", gerr.Code, gerr.Message)
	}
	return ClassifyTransport("gemini", err)
}
