// Package metrics provides Prometheus instrumentation.
//
// All collectors live on a dedicated registry so tests can create
// independent instances without duplicate-registration panics. The scrape
// endpoint is served by promhttp over that registry.
package metrics
