package mock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/atlas/internal/ai"
)

// ProviderName identifies the mock provider in configuration and logs
const ProviderName = "mock"

// DefaultResponse is the canned model output returned when no override is set.
// It matches the scaffold-railing example used in demos and tests.
const DefaultResponse = `{"zone":"3","hazardType":"loose scaffold railing","severity":85,"riskLevel":"MEDIUM","aiNotes":"Inferred from description"}`

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	GenerateResponse string
	GenerateError    error

	// Call tracking for testing
	GenerateCalls int
	LastPrompt    string
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// Generate returns a canned hazard report
func (p *Provider) Generate(ctx context.Context, params ai.GenerateParams) (*ai.Generation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.GenerateCalls++
	p.LastPrompt = params.Prompt

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// If a custom response or error is set, use it
	if p.GenerateError != nil {
		return nil, p.GenerateError
	}

	text := DefaultResponse
	if p.GenerateResponse != "" {
		text = p.GenerateResponse
	}

	p.logger.Debug("mock generation", "prompt_version", params.PromptVersion, "prompt_length", len(params.Prompt))

	return &ai.Generation{
		Text: text,
		Usage: ai.UsageInfo{
			Model:        "mock-ai-v1",
			InputTokens:  len(params.Prompt) / 4,
			OutputTokens: len(text) / 4,
			Duration:     5 * time.Millisecond,
		},
	}, nil
}

// Calls returns the number of Generate calls in a race-safe way
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.GenerateCalls
}
