package keys

import "errors"

var (
	// ErrMalformedKey is returned when a candidate key string does not start
	// with a recognized prefix or carries an empty body.
	ErrMalformedKey = errors.New("malformed API key")

	// ErrKeyNotFound is returned when no active credential matches a
	// candidate key. Callers surface it identically to ErrMalformedKey so
	// unauthenticated clients cannot distinguish "bad format" from
	// "unknown key".
	ErrKeyNotFound = errors.New("API key not found")

	// ErrKeyRevoked is returned by lookups that resolve a credential whose
	// RevokedAt is set.
	ErrKeyRevoked = errors.New("API key revoked")
)
