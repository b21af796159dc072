// Palisade is an API gateway for content moderation backends.
//
// It issues and verifies API keys, enforces per-key rate limits, and keeps
// an append-only request log for every moderation decision:
//   - API key issuance with argon2id credential hashing
//   - Fixed-window rate limiting per key
//   - Text, image, and conversation moderation endpoints
//   - Queryable request log with scheduled retention pruning
//
// Usage:
//
//	# Start server with default configuration
//	palisade run
//
//	# Start with custom configuration file
//	palisade run --config /path/to/config.yaml
//
//	# Validate configuration without starting
//	palisade validate
//
//	# Issue an API key
//	palisade keys issue --name "billing@example.com"
//
//	# List keys, revoke one
//	palisade keys list
//	palisade keys revoke 42
//
//	# Show version information
//	palisade version
package main

func main() {
	Execute()
}
