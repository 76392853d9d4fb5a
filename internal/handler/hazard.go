// Package handler contains HTTP handlers for the ATLAS hazard logging API.
//
// This file implements the voice submission and health endpoints.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/atlas/internal/domain"
	"github.com/DukeRupert/atlas/internal/metrics"
	"github.com/DukeRupert/atlas/internal/service"
	"github.com/jonboulle/clockwork"
)

// MaxRequestBodyBytes caps the size of a voice submission body.
const MaxRequestBodyBytes = 1 << 20

// TimestampLayout renders response timestamps as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// =============================================================================
// Response Types
// =============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ProcessVoiceResponse is returned by POST /api/process-voice on success.
type ProcessVoiceResponse struct {
	Success    bool                `json:"success"`
	Transcript string              `json:"transcript"`
	Analysis   domain.HazardReport `json:"analysis"`
	Timestamp  string              `json:"timestamp"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// HazardHandler handles voice submissions and health checks.
type HazardHandler struct {
	hazardService service.HazardService
	clock         clockwork.Clock
	logger        *slog.Logger
}

// NewHazardHandler creates a new HazardHandler.
func NewHazardHandler(
	hazardService service.HazardService,
	clock clockwork.Clock,
	logger *slog.Logger,
) *HazardHandler {
	return &HazardHandler{
		hazardService: hazardService,
		clock:         clock,
		logger:        logger,
	}
}

// RegisterRoutes registers the hazard API routes on the provided ServeMux.
func (h *HazardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /health", metrics.Instrument("/health", http.HandlerFunc(h.Health)))
	mux.Handle("POST /api/process-voice", metrics.Instrument("/api/process-voice", http.HandlerFunc(h.ProcessVoice)))
	mux.Handle("/", metrics.Instrument(metrics.UnmatchedRoute, http.HandlerFunc(h.NotFound)))
}

// NotFound answers every unregistered route with a JSON 404.
func (h *HazardHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundResponse(w, r, h.logger)
}

// =============================================================================
// GET /health
// =============================================================================

// Health reports liveness only; it never touches the provider or the log.
func (h *HazardHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: formatTimestamp(h.clock.Now()),
	})
}

// =============================================================================
// POST /api/process-voice
// =============================================================================

// ProcessVoice extracts a hazard report from a transcript and logs it.
func (h *HazardHandler) ProcessVoice(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ProcessVoice"

	transcript, err := decodeTranscript(w, r)
	if err != nil {
		metrics.TranscriptsReceived.WithLabelValues("invalid").Inc()
		ErrorResponse(w, r, h.logger, domain.Invalid(op, domain.TranscriptInvalidMessage))
		return
	}

	result, err := h.hazardService.Process(r.Context(), transcript)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ProcessVoiceResponse{
		Success:    true,
		Transcript: result.Transcript,
		Analysis:   result.Analysis,
		Timestamp:  formatTimestamp(result.Timestamp),
	})
}

// errNoTranscript is returned when the body has no string transcript field.
var errNoTranscript = errors.New("transcript must be a string")

// decodeTranscript reads {"transcript": "..."} from the request body.
// A missing, null or non-string transcript is an error.
func decodeTranscript(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", err
	}

	raw, ok := fields["transcript"]
	if !ok {
		return "", errNoTranscript
	}

	if string(bytes.TrimSpace(raw)) == "null" {
		return "", errNoTranscript
	}

	var transcript string
	if err := json.Unmarshal(raw, &transcript); err != nil {
		return "", errNoTranscript
	}

	return transcript, nil
}

// formatTimestamp renders t as ISO-8601 in UTC with millisecond precision.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
