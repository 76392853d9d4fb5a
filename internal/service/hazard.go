// Package service contains the business logic layer.
//
// This file implements the hazard service: the per-request pipeline that
// validates a transcript, extracts a hazard report through the AI provider,
// appends it to the hazard log and publishes a hazard event.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/DukeRupert/atlas/internal/domain"
	"github.com/DukeRupert/atlas/internal/events"
	"github.com/DukeRupert/atlas/internal/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// =============================================================================
// Interface Definition
// =============================================================================

// HazardService defines the interface for processing voice transcripts.
type HazardService interface {
	// Process runs the full pipeline for one transcript.
	// Returns domain.EINVALID for transcripts that fail validation.
	// Returns domain.EPROVIDER if the AI provider call fails.
	// Returns a *domain.MalformedOutputError if the model output is not a valid report.
	// Returns domain.ESINK if the hazard log append fails; no analysis is returned.
	Process(ctx context.Context, transcript string) (*ProcessResult, error)
}

// Extractor returns raw model text for a transcript.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (string, error)
}

// HazardLog appends validated reports to the durable hazard log.
type HazardLog interface {
	Append(ctx context.Context, report domain.HazardReport) (int, error)
}

// ProcessResult is the outcome of a successfully processed transcript.
type ProcessResult struct {
	Transcript string
	Analysis   domain.HazardReport
	Timestamp  time.Time
}

// =============================================================================
// Implementation
// =============================================================================

// hazardService implements the HazardService interface.
type hazardService struct {
	extractor Extractor
	log       HazardLog
	publisher events.Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewHazardService creates a new HazardService.
//
// Parameters:
// - extractor: Produces raw model output for a transcript
// - log: Durable hazard log the report is appended to
// - publisher: Receives a hazard event after each append (events.NoopPublisher to disable)
// - clock: Time source for event and response timestamps
// - logger: Structured logger for operation logging
func NewHazardService(
	extractor Extractor,
	log HazardLog,
	publisher events.Publisher,
	clock clockwork.Clock,
	logger *slog.Logger,
) HazardService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &hazardService{
		extractor: extractor,
		log:       log,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// =============================================================================
// Process
// =============================================================================

// Process validates, extracts, parses, logs and publishes one hazard report.
func (s *hazardService) Process(ctx context.Context, transcript string) (*ProcessResult, error) {
	const op = "HazardService.Process"

	if err := domain.ValidateTranscript(transcript); err != nil {
		metrics.TranscriptsReceived.WithLabelValues("invalid").Inc()
		return nil, err
	}

	raw, err := s.extractor.Extract(ctx, transcript)
	if err != nil {
		s.fail(ctx, op, "extract", err)
		return nil, err
	}

	report, err := ParseHazardReport(raw)
	if err != nil {
		s.logger.Error("model returned malformed hazard report",
			"op", op,
			"raw_output", raw,
			"error", err,
		)
		metrics.TranscriptsReceived.WithLabelValues("failed").Inc()
		return nil, err
	}

	rows, err := s.log.Append(ctx, *report)
	if err != nil {
		// The extraction succeeded but the record is lost; the caller gets a failure.
		s.fail(ctx, op, "append", err,
			"zone", report.Zone,
			"risk_level", report.RiskLevel.String(),
		)
		return nil, err
	}

	now := s.clock.Now()
	s.publish(ctx, *report, now)

	metrics.TranscriptsReceived.WithLabelValues("processed").Inc()
	metrics.HazardReportsLogged.WithLabelValues(report.RiskLevel.String()).Inc()

	s.logger.Info("hazard report logged",
		"zone", report.Zone,
		"hazard_type", report.HazardType,
		"severity", report.Severity,
		"risk_level", report.RiskLevel.String(),
		"rows", rows,
	)

	return &ProcessResult{
		Transcript: transcript,
		Analysis:   *report,
		Timestamp:  now,
	}, nil
}

// publish sends the hazard event. Failures are logged and never returned:
// the hazard log is the record of truth.
func (s *hazardService) publish(ctx context.Context, report domain.HazardReport, loggedAt time.Time) {
	event := events.HazardEvent{
		ID:       uuid.New(),
		LoggedAt: loggedAt,
		Report:   report,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish hazard event",
			"event_id", event.ID.String(),
			"error", err,
		)
	}
}

// fail logs a pipeline failure. Cancelled requests are not server errors.
func (s *hazardService) fail(ctx context.Context, op, stage string, err error, attrs ...any) {
	metrics.TranscriptsReceived.WithLabelValues("failed").Inc()

	args := append([]any{"op", op, "stage", stage, "code", domain.ErrorCode(err), "error", err}, attrs...)
	if isContextError(err) || ctx.Err() != nil {
		s.logger.Warn("hazard processing cancelled", args...)
		return
	}
	s.logger.Error("hazard processing failed", args...)
}
