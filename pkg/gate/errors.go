package gate

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized is returned when credential resolution fails for any
// reason. Malformed, unknown, and revoked credentials are deliberately
// indistinguishable through this error.
var ErrUnauthorized = errors.New("invalid or revoked API key")

// RateLimitedError is returned when the credential's window budget is
// exhausted.
type RateLimitedError struct {
	// Limit is the configured per-window limit.
	Limit int64

	// RetryAfter is how long the caller should wait before retrying.
	RetryAfter time.Duration

	// Reset is when the current window resets.
	Reset time.Time
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per window, retry after %s", e.Limit, e.RetryAfter)
}

// DownstreamError is returned when an admitted request fails in the
// moderation backend.
type DownstreamError struct {
	Endpoint string
	Cause    error
}

// Error implements the error interface.
func (e *DownstreamError) Error() string {
	return fmt.Sprintf("downstream call failed [endpoint=%s]: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DownstreamError) Unwrap() error {
	return e.Cause
}
