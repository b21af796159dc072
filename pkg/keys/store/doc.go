// Package store persists issued API key credentials for the Palisade
// gateway and resolves plaintext candidates back to records.
//
// # Backends
//
// Two backends implement the Store interface:
//
//   - SQLiteStore: durable storage in the palisade_api_keys table, suitable
//     for the single-instance deployment target.
//   - MemoryStore: map-backed storage for tests.
//
// # Lookup Strategy
//
// Secret hashes are derived with a slow KDF and a per-key salt, so they
// cannot be indexed for equality lookup. Resolve therefore scans the active
// credentials sharing the candidate's prefix and re-derives the hash for
// each. This is a known scaling limit: the cost of Resolve grows linearly
// with the number of active keys, which is adequate at small-to-moderate key
// counts. Deployments beyond that need a separate fast-hashed index column.
//
// # Revocation
//
// Revocation is a terminal soft delete: RevokedAt is set once and never
// cleared, and records are never physically removed, so historical usage
// logs stay attributable. Revoke is idempotent; revoking an already-revoked
// key is a no-op.
package store
