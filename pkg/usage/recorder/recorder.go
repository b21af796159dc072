package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"palisade-hq/palisade/pkg/usage"
)

// Config contains configuration for the request log recorder.
type Config struct {
	// Enabled enables request log recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// EnqueueWait is how long Record waits for channel space before
	// dropping the record. Default: 50 milliseconds
	EnqueueWait time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
		EnqueueWait:  50 * time.Millisecond,
	}
}

// Recorder writes request log records asynchronously.
// Records are enqueued and written by a background worker so the request
// path never blocks on storage writes.
type Recorder struct {
	storage    usage.Storage
	config     *Config
	recordChan chan *usage.Record
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger

	dropped atomic.Int64
	written atomic.Int64
}

// NewRecorder creates a new request log recorder with the provided storage
// backend and configuration.
func NewRecorder(storage usage.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *usage.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "usage.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("request log recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a record for async writing. It assigns a correlation UID
// when the record does not already carry one, and a timestamp when unset.
//
// This method returns immediately and does not block on storage writes.
// A full buffer or a shutdown in progress drops the record; the error is
// returned for accounting but must not alter the caller's response.
func (r *Recorder) Record(ctx context.Context, record *usage.Record) error {
	if !r.config.Enabled {
		return nil
	}

	if record.UID == "" {
		record.UID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	select {
	case r.recordChan <- record:
		return nil
	default:
	}

	// Buffer full on the fast path. Give the worker a short grace window
	// before counting the record as dropped.
	wait := time.NewTimer(r.config.EnqueueWait)
	defer wait.Stop()

	select {
	case r.recordChan <- record:
		return nil
	case <-wait.C:
		r.dropped.Add(1)
		r.logger.Error("request log channel full, dropping record",
			"uid", record.UID,
			"endpoint", record.Endpoint,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return usage.NewRecorderError(record.UID, context.DeadlineExceeded)
	case <-r.done:
		r.dropped.Add(1)
		r.logger.Warn("recorder shutting down, dropping record",
			"uid", record.UID,
			"endpoint", record.Endpoint,
		)
		return usage.NewRecorderError(record.UID, context.Canceled)
	}
}

// Dropped returns the number of records dropped since start.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written returns the number of records successfully written since start.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Close gracefully shuts down the recorder by draining the async channel
// and waiting for all pending writes to complete.
func (r *Recorder) Close() error {
	r.logger.Info("shutting down request log recorder")

	close(r.done)
	r.wg.Wait()

	r.logger.Info("request log recorder shut down",
		"written", r.written.Load(),
		"dropped", r.dropped.Load(),
	)
	return nil
}

// worker drains the record channel and writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			// Drain remaining records from channel before exit
			r.logger.Info("draining request log channel before shutdown",
				"pending_count", len(r.recordChan),
			)

			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					r.logger.Info("request log channel drained")
					return
				}
			}
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *usage.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Append(ctx, record); err != nil {
		r.dropped.Add(1)
		r.logger.Error("failed to store request log record",
			"uid", record.UID,
			"endpoint", record.Endpoint,
			"error", err,
		)
		return
	}

	r.written.Add(1)
	duration := time.Since(start)

	r.logger.Debug("request log recorded",
		"record_id", record.ID,
		"uid", record.UID,
		"endpoint", record.Endpoint,
		"status", record.Status,
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow request log write",
			"uid", record.UID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
