package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/atlas/internal/ai"
	"github.com/DukeRupert/atlas/internal/domain"
	"github.com/DukeRupert/atlas/internal/prompt"
)

// HazardExtractor turns a transcript into the provider's raw hazard JSON text.
// It owns prompt rendering and the provider call; it never parses the output.
type HazardExtractor struct {
	provider ai.TextGenerator
	prompt   *prompt.Template
	logger   *slog.Logger
}

// NewHazardExtractor creates a HazardExtractor for the given provider and prompt.
func NewHazardExtractor(provider ai.TextGenerator, tmpl *prompt.Template, logger *slog.Logger) *HazardExtractor {
	return &HazardExtractor{
		provider: provider,
		prompt:   tmpl,
		logger:   logger,
	}
}

// Extract renders the prompt for transcript and returns the trimmed provider text.
// Any provider failure, including an empty response, is returned as domain.EPROVIDER.
func (e *HazardExtractor) Extract(ctx context.Context, transcript string) (string, error) {
	const op = "HazardExtractor.Extract"

	rendered, err := e.prompt.Render(transcript)
	if err != nil {
		return "", domain.Internal(err, op, "failed to render hazard prompt")
	}

	gen, err := e.provider.Generate(ctx, ai.GenerateParams{
		Prompt:        rendered,
		PromptVersion: e.prompt.Version,
	})
	if err != nil {
		e.logger.Error("hazard extraction failed",
			"provider", e.provider.Name(),
			"prompt_version", e.prompt.Version,
			"retryable", ai.IsRetryable(err),
			"error", err,
		)
		return "", domain.Provider(err, op)
	}

	raw := strings.TrimSpace(gen.Text)
	if raw == "" {
		return "", domain.Provider(ai.WrapError("generate", ai.EAIEmptyResponse), op)
	}

	e.logger.Debug("hazard extraction complete",
		"provider", e.provider.Name(),
		"model", gen.Usage.Model,
		"input_tokens", gen.Usage.InputTokens,
		"output_tokens", gen.Usage.OutputTokens,
	)

	return raw, nil
}

// isContextError reports whether err was caused by request cancellation.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
