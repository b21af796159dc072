// Package server implements the HTTP surface of the Palisade service.
//
// Moderation endpoints run every request through the gate pipeline
// (credential resolution, rate limiting, downstream invocation, request
// logging). Key management endpoints are split between a self-service
// surface authenticated by the caller's own API key and an administrative
// surface authenticated by a statically configured shared token.
package server
