// Package gate is the admission pipeline in front of the moderation
// backend.
//
// # Pipeline
//
// Every request passes through four stages in order:
//
//  1. Resolve: the presented credential is parsed and matched against the
//     key store. Malformed, unknown, and revoked keys all surface as the
//     same unauthorized outcome to the caller.
//  2. Admit: the per-credential rate limiter decides whether the request
//     fits in the current window. Unauthorized requests never reach this
//     stage, so they cannot consume window budget.
//  3. Invoke: the downstream call runs with the caller's context.
//  4. Record: exactly one request log record is emitted per decision,
//     whatever the outcome. Recording failures are counted and logged but
//     never change the response.
//
// The plaintext credential is confined to the Resolve stage. It is never
// stored on the record, logged, or included in an error.
package gate
