package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/DukeRupert/atlas/internal/domain"
	"github.com/DukeRupert/atlas/internal/metrics"
)

// Rejection reasons recorded in metrics.ModelOutputRejected.
const (
	rejectSyntax = "syntax"
	rejectSchema = "schema"
)

// wireHazardReport mirrors domain.HazardReport with pointer fields so that
// missing and null fields can be told apart from zero values.
type wireHazardReport struct {
	Zone       *string  `json:"zone"`
	HazardType *string  `json:"hazardType"`
	Severity   *float64 `json:"severity"`
	RiskLevel  *string  `json:"riskLevel"`
	AINotes    *string  `json:"aiNotes"`
}

// ParseHazardReport parses raw model output as exactly one hazard report object.
//
// The whole text must be a single JSON object: markdown fences, leading prose,
// trailing content and unknown fields are rejected, and JSON types are never
// coerced (a quoted severity is an error). The decoded report is validated
// as-is, including the severity/riskLevel band; enum values are never
// rewritten, so "medium" is rejected rather than returned as MEDIUM.
//
// Every failure is a *domain.MalformedOutputError carrying raw.
func ParseHazardReport(raw string) (*domain.HazardReport, error) {
	const op = "service.ParseHazardReport"

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var wire wireHazardReport
	if err := dec.Decode(&wire); err != nil {
		metrics.ModelOutputRejected.WithLabelValues(rejectSyntax).Inc()
		return nil, domain.NewMalformedOutputError(op, raw, describeDecodeError(err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		metrics.ModelOutputRejected.WithLabelValues(rejectSyntax).Inc()
		return nil, domain.NewMalformedOutputError(op, raw, errors.New("unexpected content after JSON object"))
	}

	report, err := wire.toDomain(op)
	if err != nil {
		metrics.ModelOutputRejected.WithLabelValues(rejectSchema).Inc()
		return nil, domain.NewMalformedOutputError(op, raw, err)
	}

	if err := report.Validate(); err != nil {
		metrics.ModelOutputRejected.WithLabelValues(rejectSchema).Inc()
		return nil, domain.NewMalformedOutputError(op, raw, err)
	}

	return report, nil
}

// toDomain checks field presence and builds the domain report.
func (w *wireHazardReport) toDomain(op string) (*domain.HazardReport, error) {
	var ve *domain.ValidationError
	missing := func(field string) {
		ve = domain.AddFieldError(ve, op, field, field+" is required")
	}

	if w.Zone == nil {
		missing("zone")
	}
	if w.HazardType == nil {
		missing("hazardType")
	}
	if w.Severity == nil {
		missing("severity")
	}
	if w.RiskLevel == nil {
		missing("riskLevel")
	}
	if w.AINotes == nil {
		missing("aiNotes")
	}
	if ve != nil {
		return nil, ve
	}

	return &domain.HazardReport{
		Zone:       *w.Zone,
		HazardType: *w.HazardType,
		Severity:   *w.Severity,
		RiskLevel:  domain.RiskLevel(*w.RiskLevel),
		AINotes:    *w.AINotes,
	}, nil
}

// describeDecodeError makes encoding/json errors readable in logs and details.
func describeDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("syntax error at offset %d: %w", syntaxErr.Offset, err)
	case errors.As(err, &typeErr):
		return fmt.Errorf("field %q must be %s, got %s: %w", typeErr.Field, typeErr.Type, typeErr.Value, err)
	case errors.Is(err, io.EOF):
		return errors.New("empty model output")
	default:
		return err
	}
}
