package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelForSeverity(t *testing.T) {
	tests := []struct {
		severity float64
		want     RiskLevel
	}{
		{100, RiskLevelHigh},
		{95, RiskLevelHigh},
		{90, RiskLevelHigh},
		{89.9, RiskLevelMedium},
		{89, RiskLevelMedium},
		{75, RiskLevelMedium},
		{70, RiskLevelMedium},
		{69.5, RiskLevelLow},
		{50, RiskLevelLow},
		{0, RiskLevelLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelForSeverity(tt.severity), "severity %v", tt.severity)
	}
}

func TestRiskLevel_IsValid(t *testing.T) {
	assert.True(t, RiskLevelHigh.IsValid())
	assert.True(t, RiskLevelMedium.IsValid())
	assert.True(t, RiskLevelLow.IsValid())
	assert.False(t, RiskLevel("high").IsValid())
	assert.False(t, RiskLevel("CRITICAL").IsValid())
	assert.False(t, RiskLevel("").IsValid())
}

func TestIsValidZone(t *testing.T) {
	for _, z := range []string{"1", "2", "3", "4", "Unknown"} {
		assert.True(t, IsValidZone(z), z)
	}
	for _, z := range []string{"0", "5", "Zone 3", "three", "unknown", ""} {
		assert.False(t, IsValidZone(z), z)
	}
}

func TestHazardReport_Validate(t *testing.T) {
	valid := HazardReport{
		Zone:       "3",
		HazardType: "loose scaffold railing",
		Severity:   85,
		RiskLevel:  RiskLevelMedium,
		AINotes:    "Inferred from description",
	}

	tests := []struct {
		name       string
		mutate     func(h *HazardReport)
		wantFields []string
	}{
		{
			name:   "valid report",
			mutate: func(h *HazardReport) {},
		},
		{
			name:   "unknown zone is allowed",
			mutate: func(h *HazardReport) { h.Zone = ZoneUnknown },
		},
		{
			name:       "zone out of range",
			mutate:     func(h *HazardReport) { h.Zone = "7" },
			wantFields: []string{"zone"},
		},
		{
			name:       "empty hazard type",
			mutate:     func(h *HazardReport) { h.HazardType = "   " },
			wantFields: []string{"hazardType"},
		},
		{
			name:       "severity above range",
			mutate:     func(h *HazardReport) { h.Severity = 120; h.RiskLevel = RiskLevelHigh },
			wantFields: []string{"severity"},
		},
		{
			name:       "severity below range",
			mutate:     func(h *HazardReport) { h.Severity = -1; h.RiskLevel = RiskLevelLow },
			wantFields: []string{"severity"},
		},
		{
			name:       "unrecognized risk level",
			mutate:     func(h *HazardReport) { h.RiskLevel = "SEVERE" },
			wantFields: []string{"riskLevel"},
		},
		{
			name:       "lowercase risk level",
			mutate:     func(h *HazardReport) { h.RiskLevel = "medium" },
			wantFields: []string{"riskLevel"},
		},
		{
			name:       "padded risk level",
			mutate:     func(h *HazardReport) { h.RiskLevel = " MEDIUM " },
			wantFields: []string{"riskLevel"},
		},
		{
			name:       "lowercase unknown zone",
			mutate:     func(h *HazardReport) { h.Zone = "unknown" },
			wantFields: []string{"zone"},
		},
		{
			name:       "risk level inconsistent with severity",
			mutate:     func(h *HazardReport) { h.Severity = 95; h.RiskLevel = RiskLevelMedium },
			wantFields: []string{"riskLevel"},
		},
		{
			name: "multiple failures are all reported",
			mutate: func(h *HazardReport) {
				h.Zone = ""
				h.HazardType = ""
				h.RiskLevel = ""
			},
			wantFields: []string{"zone", "hazardType", "riskLevel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid
			tt.mutate(&h)

			err := h.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Len(t, ve.Fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, ve.Fields, f)
			}
		})
	}
}

func TestHazardReport_ValidateBandsFromPromptContract(t *testing.T) {
	tests := []struct {
		severity float64
		level    RiskLevel
	}{
		{95, RiskLevelHigh},
		{75, RiskLevelMedium},
		{50, RiskLevelLow},
	}

	for _, tt := range tests {
		h := HazardReport{Zone: "1", HazardType: "open trench", Severity: tt.severity, RiskLevel: tt.level}
		assert.NoError(t, h.Validate())
	}
}

func TestValidateTranscript(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		wantErr    bool
	}{
		{"empty", "", true},
		{"whitespace only", "               ", true},
		{"nine characters", "abcdefghi", true},
		{"nine characters padded", "   abcdefghi   ", true},
		{"exactly ten", "abcdefghij", false},
		{"nine composed accents", "ééééééééé", true},
		{"decomposed accents count each mark", "e\u0301e\u0301e\u0301e\u0301e\u0301", false},
		{"astral characters count twice", "🚧🚧🚧🚧🚧", false},
		{"four astral characters", "🚧🚧🚧🚧", true},
		{"full sentence", "There's a loose scaffold railing on zone three.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTranscript(tt.transcript)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, EINVALID, ErrorCode(err))
			assert.Equal(t, TranscriptInvalidMessage, ErrorMessage(err))
		})
	}
}

func TestTranscriptLength(t *testing.T) {
	assert.Equal(t, 0, TranscriptLength("   "))
	assert.Equal(t, 4, TranscriptLength("  caf\u00e9 "))
	assert.Equal(t, 5, TranscriptLength("cafe\u0301"))
	assert.Equal(t, 2, TranscriptLength("🚧"))
}
