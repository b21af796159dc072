package ratelimit

import "time"

// Config contains configuration for the per-credential rate limiter.
type Config struct {
	// RequestsPerMinute is the number of requests admitted per credential
	// per window. Zero disables limiting (every request is admitted).
	RequestsPerMinute int

	// Window is the counting window duration.
	// Default: one minute.
	Window time.Duration
}

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates if the request is admitted.
	Allowed bool

	// Limit is the configured per-window limit.
	Limit int64

	// Remaining is how many requests remain in the current window.
	Remaining int64

	// Reset is when the current window resets.
	Reset time.Time

	// RetryAfter is how long to wait before retrying.
	// Only set when Allowed is false.
	RetryAfter time.Duration
}

// KeyLimiter answers admit-or-reject for a credential at a point in time.
// Implementations must be safe for concurrent use.
type KeyLimiter interface {
	Allow(keyID int64, now time.Time) *Result
}
