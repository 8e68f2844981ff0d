package embed

import (
	"context"
	"errors"
	"time"

	"github.com/credilex/parecer/internal/llm"
)

// embedSleepFunc is the sleep function used between retries (injectable for tests)
var embedSleepFunc = time.Sleep

// RetryEmbedder retries transient provider failures with exponential backoff.
// Auth failures and caller cancellation are returned immediately.
type RetryEmbedder struct {
	inner       Embedder
	maxAttempts int
}

// WithRetry wraps an embedder with retry on transient failures. maxAttempts
// counts the initial call; values below 2 return the inner embedder unchanged.
func WithRetry(inner Embedder, maxAttempts int) Embedder {
	if maxAttempts < 2 {
		return inner
	}
	return &RetryEmbedder{
		inner:       inner,
		maxAttempts: maxAttempts,
	}
}

// Name returns the wrapped embedder's provider name
func (e *RetryEmbedder) Name() string {
	return e.inner.Name()
}

// Dimensions returns the wrapped embedder's vector size
func (e *RetryEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Embed calls the inner embedder, retrying transient failures
func (e *RetryEmbedder) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		vectors, err := e.inner.Embed(ctx, texts, mode)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !isRetryableEmbedError(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < e.maxAttempts-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			embedSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

// isRetryableEmbedError returns true for errors that indicate transient failures
func isRetryableEmbedError(err error) bool {
	if errors.Is(err, llm.ErrAuth) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, llm.ErrUnavailable) ||
		errors.Is(err, llm.ErrQuota) ||
		errors.Is(err, context.DeadlineExceeded)
}
