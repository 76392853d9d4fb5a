package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// TextGenerator defines the interface for single-shot text generation.
// Providers receive a fully rendered prompt and return the model's text
// without interpreting it.
type TextGenerator interface {
	// Generate sends the prompt and returns the generated text
	Generate(ctx context.Context, params GenerateParams) (*Generation, error)

	// Name identifies the provider in logs and metrics (e.g. "gemini")
	Name() string
}

// GenerateParams contains parameters for a generation request
type GenerateParams struct {
	Prompt        string // Fully rendered prompt text
	PromptVersion string // Prompt artifact version, for logging/metrics
	MaxTokens     int    // Optional output token cap (0 = provider default)
}

// Generation is the raw result of a generation request
type Generation struct {
	Text  string    // Generated text, untouched
	Usage UsageInfo // Token usage and cost information
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	CostCents    int           // Estimated cost in cents
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum attempts; 1 disables retries
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests

	// Clock drives retry backoff; nil uses the real clock
	Clock clockwork.Clock
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIBadRequest indicates the provider rejected the request
	EAIBadRequest = errors.New("ai provider rejected the request")

	// EAIBlocked indicates the provider refused to answer for safety reasons
	EAIBlocked = errors.New("ai provider blocked the prompt")

	// EAIEmptyResponse indicates the provider returned no text
	EAIEmptyResponse = errors.New("ai provider returned an empty response")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
