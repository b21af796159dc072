package moderation

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the input to an analysis is empty.
var ErrEmptyInput = errors.New("moderation input is empty")

// BackendError represents a non-success response from the moderation
// backend.
type BackendError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("moderation backend error [endpoint=%s, status=%d]: %s", e.Endpoint, e.StatusCode, e.Message)
}

// ParseError represents a backend answer that could not be decoded into a
// verdict. A model reply without valid JSON lands here.
type ParseError struct {
	Endpoint    string
	RawResponse string
	Cause       error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("moderation parse error [endpoint=%s]: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
