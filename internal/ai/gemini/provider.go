package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/atlas/internal/ai"
	"github.com/DukeRupert/atlas/internal/metrics"
)

const (
	// ProviderName identifies this provider in configuration, logs and metrics
	ProviderName = "gemini"

	// APIBaseURL is the base URL for the Generative Language API
	APIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the default Gemini model to use
	DefaultModel = "gemini-3-flash-preview"

	// Estimated pricing in cents per 1M tokens
	PricingInputCents  = 50
	PricingOutputCents = 300
)

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // Overrides APIBaseURL (tests, proxies)
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.TextGenerator using Gemini generateContent
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Gemini provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 1
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// Generate sends a single-turn prompt and returns the model's text
func (p *Provider) Generate(ctx context.Context, params ai.GenerateParams) (*ai.Generation, error) {
	startTime := time.Now()

	if strings.TrimSpace(params.Prompt) == "" {
		return nil, ai.WrapError("generate", fmt.Errorf("%w: prompt is required", ai.EAIBadRequest))
	}

	body, err := p.buildRequestBody(params)
	if err != nil {
		return nil, ai.WrapError("build request", err)
	}

	var resp *apiResponse
	err = ai.Retry(ctx, p.config.ProviderConfig, p.logger, func(ctx context.Context) error {
		req, err := p.newRequest(ctx, body)
		if err != nil {
			return err
		}
		r, err := p.executeRequest(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		metrics.AICallFailed(ProviderName, params.PromptVersion, time.Since(startTime))
		return nil, ai.WrapError("execute request", err)
	}

	text, err := extractText(resp)
	if err != nil {
		metrics.AICallFailed(ProviderName, params.PromptVersion, time.Since(startTime))
		return nil, ai.WrapError("parse response", err)
	}

	usage := ai.UsageInfo{
		Model:        p.config.Model,
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		CostCents:    calculateCost(resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount),
		Duration:     time.Since(startTime),
	}
	metrics.AICallSucceeded(ProviderName, params.PromptVersion, usage.InputTokens, usage.OutputTokens, usage.CostCents, usage.Duration)

	p.logger.Debug("gemini generation complete",
		"model", usage.Model,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"duration_ms", usage.Duration.Milliseconds(),
	)

	return &ai.Generation{Text: text, Usage: usage}, nil
}

// buildRequestBody marshals the generateContent request body
func (p *Provider) buildRequestBody(params ai.GenerateParams) ([]byte, error) {
	reqBody := apiRequest{
		Contents: []apiContent{
			{
				Role:  "user",
				Parts: []apiPart{{Text: params.Prompt}},
			},
		},
	}
	if params.MaxTokens > 0 {
		reqBody.GenerationConfig = &apiGenerationConfig{MaxOutputTokens: params.MaxTokens}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bodyBytes, nil
}

// newRequest creates the HTTP request; called once per attempt so the body is never reused
func (p *Provider) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", p.config.BaseURL, p.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.config.APIKey)

	return req, nil
}

// executeRequest executes a single HTTP request
func (p *Provider) executeRequest(req *http.Request) (*apiResponse, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %v", ai.EAITimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to ai errors
func mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)
	msg := errResp.Error.Message
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ai.EAIUnauthorized, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ai.EAIRateLimit, msg)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ai.EAITimeout, msg)
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w: %s", ai.EAIBadRequest, msg)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ai.EAIUnavailable, msg)
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, msg)
	}
}

// extractText joins the text parts of the first candidate, skipping thought summaries
func extractText(resp *apiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: %s", ai.EAIBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", ai.EAIEmptyResponse
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	if sb.Len() == 0 {
		if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
			return "", fmt.Errorf("%w: finish reason %s", ai.EAIBlocked, candidate.FinishReason)
		}
		return "", ai.EAIEmptyResponse
	}

	return sb.String(), nil
}

// calculateCost calculates the cost in cents for the given token usage
func calculateCost(inputTokens, outputTokens int) int {
	inputCost := (inputTokens * PricingInputCents) / 1_000_000
	outputCost := (outputTokens * PricingOutputCents) / 1_000_000
	return inputCost + outputCost
}

// API request/response types

type apiRequest struct {
	Contents         []apiContent         `json:"contents"`
	GenerationConfig *apiGenerationConfig `json:"generationConfig,omitempty"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type apiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type apiResponse struct {
	Candidates     []apiCandidate     `json:"candidates"`
	PromptFeedback *apiPromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  apiUsageMetadata   `json:"usageMetadata"`
	ModelVersion   string             `json:"modelVersion"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiPromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type apiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
