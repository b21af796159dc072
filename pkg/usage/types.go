package usage

import (
	"context"
	"encoding/json"
	"time"
)

// Status classifies the outcome of a handled request.
type Status string

const (
	// StatusSuccess marks an admitted request whose downstream call completed.
	StatusSuccess Status = "success"

	// StatusRateLimited marks a request rejected by the rate limiter.
	StatusRateLimited Status = "rate_limited"

	// StatusUnauthorized marks a request rejected during credential
	// resolution (malformed, unknown, or revoked key).
	StatusUnauthorized Status = "unauthorized"

	// StatusDownstreamError marks an admitted request whose downstream call
	// failed.
	StatusDownstreamError Status = "downstream_error"
)

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusRateLimited, StatusUnauthorized, StatusDownstreamError:
		return true
	}
	return false
}

// Record is one request log entry. Records are immutable once appended.
type Record struct {
	// ID is the storage-assigned identifier, monotonically increasing.
	ID int64 `json:"id"`

	// UID is a correlation identifier assigned at creation, before the
	// storage id exists. It matches the request id on the HTTP surface.
	UID string `json:"uid"`

	// KeyID references the credential that authenticated the request.
	// Zero for requests that never resolved a credential.
	KeyID int64 `json:"key_id"`

	// Timestamp is when the request was processed.
	Timestamp time.Time `json:"timestamp"`

	// Endpoint is the logical operation name, e.g. "/v1/moderate/text".
	Endpoint string `json:"endpoint"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// Result is the downstream result payload, stored verbatim.
	// Nil for rejected requests.
	Result json.RawMessage `json:"result,omitempty"`

	// DurationMs is the request processing duration in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// RequestBytes is the size of the request body.
	RequestBytes int64 `json:"request_bytes"`
}

// Query defines filter parameters for reading request logs.
// Zero-valued fields are not applied.
type Query struct {
	// KeyID filters by credential id.
	KeyID *int64 `json:"key_id,omitempty"`

	// Endpoint filters by exact logical operation name.
	Endpoint string `json:"endpoint,omitempty"`

	// Status filters by outcome classification.
	Status Status `json:"status,omitempty"`

	// StartTime and EndTime bound the record timestamp (inclusive).
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Contains matches a substring anywhere in the result payload.
	Contains string `json:"contains,omitempty"`

	// Limit and Offset paginate results. Limit defaults to 100.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Storage is the interface for request log persistence.
// Implementations must be safe for concurrent appends from the request path.
type Storage interface {
	// Append persists a record and fills in its storage-assigned ID.
	Append(ctx context.Context, record *Record) error

	// Query retrieves records matching the filters, newest first.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Get returns a single record by storage id.
	// Returns ErrRecordNotFound if no such record exists.
	Get(ctx context.Context, id int64) (*Record, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records older than the given time and returns how many
	// were removed. Used only by retention pruning.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
