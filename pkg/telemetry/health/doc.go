// Package health provides liveness, readiness, and version endpoints.
//
// Liveness answers as long as the process runs. Readiness runs the
// registered component checks (credential store, request log storage,
// configuration) concurrently and degrades to 503 when any fails.
package health
