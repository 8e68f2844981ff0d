package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Sentinel errors for provider failures. Callers match them with errors.Is to
// map provider problems to HTTP status codes or fallback behavior. The embed
// package classifies its provider errors into the same sentinels.
var (
	// ErrAuth indicates the provider rejected the API key
	ErrAuth = errors.New("llm: authentication failed")

	// ErrQuota indicates the provider rate-limited or exhausted the quota
	ErrQuota = errors.New("llm: quota exceeded")

	// ErrUnavailable indicates the provider is unreachable or returned a server error
	ErrUnavailable = errors.New("llm: provider unavailable")
)

// ClassifyStatus maps an HTTP status code from a provider to a sentinel error
func ClassifyStatus(provider string, status int, detail string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrAuth, provider, status, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrQuota, provider, status, detail)
	case status >= 500:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUnavailable, provider, status, detail)
	default:
		return fmt.Errorf("%s returned status %d: %s", provider, status, detail)
	}
}

// ClassifyTransport maps a transport-level failure to a sentinel error.
// Context cancellation and deadline errors pass through unchanged so callers
// can distinguish timeouts from provider outages.
func ClassifyTransport(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return context.DeadlineExceeded
	}
	return fmt.Errorf("%w: %s request failed: %v", ErrUnavailable, provider, err)
}

// ClassifyOpenAIError maps go-openai error types to sentinel errors
func ClassifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return ClassifyStatus("openai", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return ClassifyStatus("openai", reqErr.HTTPStatusCode, reqErr.Error())
	}
	return ClassifyTransport("openai", err)
}
