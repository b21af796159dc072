// Package storage provides append-only persistence for request log records.
//
// The SQLite backend stores records in the palisade_request_logs table and
// is the production default. Appends are insert-only; nothing on the request
// path ever takes a lock shared with reads beyond SQLite's own write
// serialization. The memory backend exists for tests.
package storage
