package gate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"palisade-hq/palisade/pkg/keys"
	keystore "palisade-hq/palisade/pkg/keys/store"
	"palisade-hq/palisade/pkg/limits/ratelimit"
	"palisade-hq/palisade/pkg/usage"
)

// Recorder is the sink for request log records. Satisfied by
// recorder.Recorder.
type Recorder interface {
	Record(ctx context.Context, record *usage.Record) error
}

// Downstream performs the backend call for an admitted request and returns
// the result payload.
type Downstream func(ctx context.Context) (json.RawMessage, error)

// Request describes one inbound request to the gate.
type Request struct {
	// Credential is the presented plaintext API key. The gate does not
	// retain it past credential resolution.
	Credential string

	// Endpoint is the logical operation name, e.g. "/v1/moderate/text".
	Endpoint string

	// RequestID correlates the log record with the HTTP request.
	RequestID string

	// RequestBytes is the size of the request body.
	RequestBytes int64
}

// Gate runs the Resolve, Admit, Invoke, Record pipeline.
type Gate struct {
	store    keystore.Store
	limiter  ratelimit.KeyLimiter
	recorder Recorder
	logger   *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// New creates a gate over the given credential store, limiter, and
// request log recorder.
func New(store keystore.Store, limiter ratelimit.KeyLimiter, recorder Recorder) *Gate {
	return &Gate{
		store:    store,
		limiter:  limiter,
		recorder: recorder,
		logger:   slog.Default().With("component", "gate"),
		now:      time.Now,
	}
}

// Process runs one request through the pipeline. On success it returns the
// downstream payload and the resolved credential. On rejection or failure
// it returns ErrUnauthorized, a *RateLimitedError, or a *DownstreamError.
//
// Exactly one request log record is emitted per call, regardless of
// outcome. The caller's response never depends on whether recording
// succeeded.
func (g *Gate) Process(ctx context.Context, req *Request, call Downstream) (json.RawMessage, *keys.Key, error) {
	start := g.now()

	// Resolve. Every resolution failure maps to the same outcome so a
	// caller cannot probe which keys exist.
	key, err := g.store.Resolve(ctx, req.Credential)
	if err != nil {
		if isCredentialError(err) {
			g.record(ctx, req, 0, usage.StatusUnauthorized, nil, start)
			return nil, nil, ErrUnauthorized
		}
		// Storage failure beneath resolution. Do not guess at an
		// authorization answer.
		g.logger.Error("credential resolution failed",
			"request_id", req.RequestID,
			"endpoint", req.Endpoint,
			"error", err,
		)
		g.record(ctx, req, 0, usage.StatusUnauthorized, nil, start)
		return nil, nil, ErrUnauthorized
	}

	// Admit.
	result := g.limiter.Allow(key.ID, g.now())
	if !result.Allowed {
		g.record(ctx, req, key.ID, usage.StatusRateLimited, nil, start)
		return nil, key, &RateLimitedError{
			Limit:      result.Limit,
			RetryAfter: result.RetryAfter,
			Reset:      result.Reset,
		}
	}

	// Invoke.
	payload, err := call(ctx)
	if err != nil {
		g.record(ctx, req, key.ID, usage.StatusDownstreamError, nil, start)
		return nil, key, &DownstreamError{Endpoint: req.Endpoint, Cause: err}
	}

	g.record(ctx, req, key.ID, usage.StatusSuccess, payload, start)
	return payload, key, nil
}

// record emits the single request log record for a decision. Failures are
// logged and swallowed; the response has already been decided.
func (g *Gate) record(ctx context.Context, req *Request, keyID int64, status usage.Status, result json.RawMessage, start time.Time) {
	record := &usage.Record{
		UID:          req.RequestID,
		KeyID:        keyID,
		Timestamp:    start.UTC(),
		Endpoint:     req.Endpoint,
		Status:       status,
		Result:       result,
		DurationMs:   g.now().Sub(start).Milliseconds(),
		RequestBytes: req.RequestBytes,
	}

	if err := g.recorder.Record(ctx, record); err != nil {
		g.logger.Error("failed to record request log",
			"request_id", req.RequestID,
			"endpoint", req.Endpoint,
			"status", status,
			"error", err,
		)
	}
}

func isCredentialError(err error) bool {
	return errors.Is(err, keys.ErrMalformedKey) ||
		errors.Is(err, keys.ErrKeyNotFound) ||
		errors.Is(err, keys.ErrKeyRevoked)
}
