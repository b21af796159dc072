// Package ratelimit provides per-credential request rate limiting for the
// Palisade gateway.
//
// # Algorithm
//
// The limiter uses fixed-window counting: each credential gets a counter and
// a window start timestamp, created lazily on first use. When the window
// duration has elapsed the counter resets. A request is admitted while the
// counter is below the configured limit; otherwise it is rejected with the
// time remaining until the window resets.
//
// Fixed windows are a deliberate, auditable approximation: burst traffic
// straddling a window boundary can exceed the nominal rate by up to 2x.
//
// # Concurrency
//
// The check-then-increment sequence is atomic per credential. Each window
// carries its own lock, so simultaneous requests for the same credential
// cannot both observe count = limit-1 and both be admitted, and traffic for
// different credentials does not contend on a shared lock beyond the window
// map itself.
//
// # Scope
//
// State is in-memory only. A process restart resets all counters, and
// counters are not shared across instances; both are accepted limitations
// of the single-instance deployment target. The KeyLimiter interface exists
// so a shared-store implementation can be substituted without changing
// callers.
package ratelimit
