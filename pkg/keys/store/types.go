package store

import (
	"context"
	"fmt"

	"palisade-hq/palisade/pkg/keys"
)

// Store is the interface for credential persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Issue creates a new credential with the given label and returns the
	// stored record together with the plaintext secret. The plaintext is
	// returned exactly once; it is not retrievable through any other method.
	Issue(ctx context.Context, name string) (*keys.Key, string, error)

	// Resolve parses a plaintext candidate and returns the matching active
	// credential. It returns keys.ErrMalformedKey for an unrecognized
	// prefix, keys.ErrKeyNotFound when no active credential matches, and
	// keys.ErrKeyRevoked when the only match has been revoked.
	Resolve(ctx context.Context, candidate string) (*keys.Key, error)

	// Revoke marks the credential revoked if it is not already. Revoking an
	// already-revoked key is a no-op. Returns keys.ErrKeyNotFound for an
	// unknown id.
	Revoke(ctx context.Context, id int64) error

	// Get returns the credential with the given id, revoked or not.
	// Returns keys.ErrKeyNotFound for an unknown id.
	Get(ctx context.Context, id int64) (*keys.Key, error)

	// List returns all credentials, including revoked ones, newest first,
	// redacted to omit hash and salt.
	List(ctx context.Context) ([]keys.Redacted, error)

	// Close releases resources held by the store.
	Close() error
}

// StorageError represents a failure in the persistence layer beneath a
// credential operation.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "issue", "resolve", "revoke", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("key store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
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
