// Package usage defines the request log model for the Palisade gateway:
// one immutable record per handled request, including rejections.
//
// # Record Lifecycle
//
// A record is created once per request after the admit/reject decision (and,
// for admitted requests, after the downstream call completes). Records are
// append-only: the core never updates or deletes them. Retention pruning is
// an operator concern, packaged as the opt-in scheduler in the retention
// subpackage.
//
// # Attribution
//
// Each record carries the id of the credential that authenticated the
// request. Credentials are soft-deleted on revocation precisely so this
// back-reference stays resolvable for historical analytics and billing.
//
// # Subpackages
//
//   - storage: sqlite and in-memory append-only backends
//   - recorder: async, non-blocking write path for the request hot path
//   - retention: cron-scheduled pruning of aged records
package usage
