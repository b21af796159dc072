// Package telemetry groups observability concerns.
//
// Subpackages:
//
//   - logging: structured slog setup with credential redaction
//   - metrics: Prometheus collectors and the scrape endpoint
//   - health: liveness, readiness, and version endpoints
package telemetry
