package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Application error codes
const (
	EINVALID   = "invalid"          // Invalid input (transcript shape or length)
	EPROVIDER  = "provider"         // Text-generation provider call failed
	EMALFORMED = "malformed_output" // Provider output is not a valid hazard report
	ESINK      = "sink"             // Appending to the hazard log failed
	ENOTFOUND  = "not_found"        // Route or resource not found
	EINTERNAL  = "internal"         // Internal server error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "HazardService.Process")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var me *MalformedOutputError
	if errors.As(err, &me) {
		return EMALFORMED
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ErrorDetails returns the message together with the underlying cause,
// without the internal operation name. It is what clients see in the
// "details" field of a failed request.
func ErrorDetails(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return err.Error()
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Provider wraps a text-generation provider failure.
func Provider(err error, op string) *Error {
	return &Error{
		Code:    EPROVIDER,
		Op:      op,
		Message: "hazard extraction failed",
		Err:     err,
	}
}

// Sink wraps a hazard log append failure.
func Sink(err error, op string) *Error {
	return &Error{
		Code:    ESINK,
		Op:      op,
		Message: "hazard log append failed",
		Err:     err,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// MalformedOutputError is returned when provider output cannot be turned
// into a valid HazardReport. RawOutput keeps the exact text for diagnosis.
type MalformedOutputError struct {
	Op        string
	RawOutput string
	Err       error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("invalid JSON returned from model: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// NewMalformedOutputError creates a MalformedOutputError for the given raw text.
func NewMalformedOutputError(op, raw string, err error) *MalformedOutputError {
	return &MalformedOutputError{
		Op:        op,
		RawOutput: raw,
		Err:       err,
	}
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: validation failed", e.Op)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is nil or not a ValidationError, returns a new one for op.
func AddFieldError(err error, op, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) && ve != nil {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError(op, field, message)
}
