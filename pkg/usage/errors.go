package usage

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned by Get for an unknown record id.
var ErrRecordNotFound = errors.New("request log record not found")

// StorageError represents an error from the request log storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "append", "query", "delete", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("usage storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RecorderError represents a failure to enqueue or write a record on the
// async recording path.
type RecorderError struct {
	UID   string // record correlation id
	Cause error
}

// Error implements the error interface.
func (e *RecorderError) Error() string {
	if e.UID != "" {
		return fmt.Sprintf("usage recorder error [uid=%s]: %v", e.UID, e.Cause)
	}
	return fmt.Sprintf("usage recorder error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RecorderError) Unwrap() error {
	return e.Cause
}

// NewRecorderError creates a new RecorderError.
func NewRecorderError(uid string, cause error) *RecorderError {
	return &RecorderError{
		UID:   uid,
		Cause: cause,
	}
}
