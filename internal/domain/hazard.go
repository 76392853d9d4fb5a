// Package domain contains core business types and interfaces.
//
// This file defines the HazardReport domain type: the structured record
// extracted from a worker's spoken transcript and appended to the hazard log.
package domain

import (
	"fmt"
	"strings"
)

// =============================================================================
// Risk Level
// =============================================================================

// RiskLevel is the coarse risk band a hazard falls into.
type RiskLevel string

const (
	// RiskLevelHigh covers severities of 90 and above.
	RiskLevelHigh RiskLevel = "HIGH"

	// RiskLevelMedium covers severities from 70 up to (not including) 90.
	RiskLevelMedium RiskLevel = "MEDIUM"

	// RiskLevelLow covers severities below 70.
	RiskLevelLow RiskLevel = "LOW"
)

// Severity band boundaries.
const (
	SeverityMin         = 0
	SeverityMax         = 100
	HighRiskThreshold   = 90
	MediumRiskThreshold = 70
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}

// IsValid returns true if the risk level is a recognized value.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLevelHigh, RiskLevelMedium, RiskLevelLow:
		return true
	}
	return false
}

// RiskLevelForSeverity returns the band a severity belongs to.
func RiskLevelForSeverity(severity float64) RiskLevel {
	switch {
	case severity >= HighRiskThreshold:
		return RiskLevelHigh
	case severity >= MediumRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// =============================================================================
// Zones
// =============================================================================

// ZoneUnknown is used when the transcript does not identify a site zone.
const ZoneUnknown = "Unknown"

// validZones lists every zone value accepted in a hazard report.
var validZones = map[string]bool{
	"1":         true,
	"2":         true,
	"3":         true,
	"4":         true,
	ZoneUnknown: true,
}

// IsValidZone returns true if zone is "1" through "4" or "Unknown".
func IsValidZone(zone string) bool {
	return validZones[zone]
}

// =============================================================================
// Hazard Report
// =============================================================================

// HazardReport is the structured hazard data extracted from a transcript.
// It is built fresh per request and never cached.
type HazardReport struct {
	Zone       string    `json:"zone"`
	HazardType string    `json:"hazardType"`
	Severity   float64   `json:"severity"`
	RiskLevel  RiskLevel `json:"riskLevel"`
	AINotes    string    `json:"aiNotes"`
}

// Validate checks field presence, ranges and risk band consistency.
// Enum fields must match exactly: "medium" and " MEDIUM " are not MEDIUM.
// It returns nil or a *ValidationError listing every failing field.
func (h *HazardReport) Validate() error {
	const op = "HazardReport.Validate"
	var ve *ValidationError

	if !IsValidZone(h.Zone) {
		ve = AddFieldError(ve, op, "zone", fmt.Sprintf("zone must be 1-4 or %q, got %q", ZoneUnknown, h.Zone))
	}
	if strings.TrimSpace(h.HazardType) == "" {
		ve = AddFieldError(ve, op, "hazardType", "hazardType is required")
	}

	severityOK := h.Severity >= SeverityMin && h.Severity <= SeverityMax
	if !severityOK {
		ve = AddFieldError(ve, op, "severity", fmt.Sprintf("severity must be between %d and %d, got %g", SeverityMin, SeverityMax, h.Severity))
	}

	switch {
	case !h.RiskLevel.IsValid():
		ve = AddFieldError(ve, op, "riskLevel", fmt.Sprintf("riskLevel must be HIGH, MEDIUM or LOW, got %q", h.RiskLevel))
	case severityOK && RiskLevelForSeverity(h.Severity) != h.RiskLevel:
		ve = AddFieldError(ve, op, "riskLevel", fmt.Sprintf("riskLevel %s does not match severity %g (expected %s)",
			h.RiskLevel, h.Severity, RiskLevelForSeverity(h.Severity)))
	}

	if ve != nil {
		return ve
	}
	return nil
}
