package domain

import (
	"strings"
	"unicode/utf16"
)

// MinTranscriptLength is the minimum length of a transcript after trimming
// surrounding whitespace, counted in UTF-16 code units.
const MinTranscriptLength = 10

// TranscriptInvalidMessage is the client-facing message for rejected transcripts.
const TranscriptInvalidMessage = "Transcript too short or invalid"

// TranscriptLength returns the trimmed length of transcript in UTF-16 code
// units, the unit browser clients measure text in. Characters outside the
// Basic Multilingual Plane count as two.
func TranscriptLength(transcript string) int {
	n := 0
	for _, r := range strings.TrimSpace(transcript) {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// ValidateTranscript rejects transcripts that are too short to describe a hazard.
// The transcript itself is never modified.
func ValidateTranscript(transcript string) error {
	if TranscriptLength(transcript) < MinTranscriptLength {
		return Invalid("Transcript.Validate", TranscriptInvalidMessage)
	}
	return nil
}
