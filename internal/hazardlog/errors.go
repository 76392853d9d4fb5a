package hazardlog

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNotFound is returned when the target sheet, table or bucket doesn't exist.
	ErrNotFound = errors.New("log target not found")

	// ErrAccessDenied is returned when the store rejects the configured credentials.
	ErrAccessDenied = errors.New("access denied")

	// ErrRateLimited is returned when the store throttles the append.
	ErrRateLimited = errors.New("store rate limit exceeded")

	// ErrKeyExists is returned when a create-only write finds an existing object.
	ErrKeyExists = errors.New("object already exists at this key")

	// ErrUnconfirmed is returned when the store accepts a write but reports no updated rows.
	ErrUnconfirmed = errors.New("store did not confirm the appended rows")

	// ErrInvalidRow is returned when a row does not have the expected columns.
	ErrInvalidRow = errors.New("invalid log row")
)

// =============================================================================
// Structured Error Type
// =============================================================================

// StoreError wraps store operation errors with the store that produced them.
type StoreError struct {
	// Store is the store name (e.g., "sheets", "postgres").
	Store string

	// Op is the operation that failed (e.g., "AppendRows").
	Op string

	// Err is the underlying error that occurred.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsAccessDenied returns true if the error indicates the credentials were rejected.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsRateLimited returns true if the error indicates the store throttled the write.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
