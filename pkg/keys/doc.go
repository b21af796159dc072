// Package keys implements the API key credential model for the Palisade
// gateway: secret generation, salted slow hashing, and verification.
//
// # Key Format
//
// A key is an opaque string of the form {prefix}{body}, where the prefix
// identifies the issuing environment (e.g. "pal_live_", "pal_test_") and the
// body is URL-safe base64 of cryptographically random bytes. The prefix lets
// malformed input be rejected before any storage lookup.
//
// # One-Time Secrets
//
// The plaintext secret exists only in the return value of Issue on the
// credential store. The persisted Key record holds an argon2id hash and a
// per-key random salt; there is no code path that reconstructs the plaintext
// from stored state.
//
// # Verification
//
// Verification recomputes argon2id(salt, candidate) and compares against the
// stored hash with a constant-time comparison, so partial matches leak no
// timing information.
package keys
