// Package recorder provides asynchronous request log recording.
//
// Records are enqueued on a buffered channel and written by a background
// worker so the request path never blocks on storage. Close drains the
// channel before returning. When the channel is full the record is dropped
// and counted; the caller's response is never affected by a recording
// failure.
package recorder
