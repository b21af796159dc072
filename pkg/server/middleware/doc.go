// Package middleware provides HTTP middleware for the Palisade server:
// request ID assignment, panic recovery, request logging, per-request
// timeouts, and body size limits.
package middleware
