package gate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"palisade-hq/palisade/pkg/keys"
	keystore "palisade-hq/palisade/pkg/keys/store"
	"palisade-hq/palisade/pkg/limits/ratelimit"
	"palisade-hq/palisade/pkg/usage"
)

// captureRecorder stores every record it receives.
type captureRecorder struct {
	mu      sync.Mutex
	records []*usage.Record
	fail    bool
}

func (c *captureRecorder) Record(ctx context.Context, record *usage.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return usage.NewRecorderError(record.UID, errors.New("buffer full"))
	}
	c.records = append(c.records, record)
	return nil
}

func (c *captureRecorder) all() []*usage.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*usage.Record(nil), c.records...)
}

func newTestGate(t *testing.T, limit int) (*Gate, keystore.Store, *captureRecorder, string) {
	t.Helper()

	codec, err := keys.NewCodec(keys.DefaultPrefix, keys.DefaultSecretBytes)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	store := keystore.NewMemoryStore(codec)
	t.Cleanup(func() { store.Close() })

	_, plaintext, err := store.Issue(context.Background(), "test client")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	limiter := ratelimit.NewFixedWindow(ratelimit.Config{
		RequestsPerMinute: limit,
		Window:            time.Minute,
	})
	recorder := &captureRecorder{}

	return New(store, limiter, recorder), store, recorder, plaintext
}

func okCall(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"flagged":false}`), nil
}

func TestProcessSuccess(t *testing.T) {
	g, _, recorder, plaintext := newTestGate(t, 10)

	payload, key, err := g.Process(context.Background(), &Request{
		Credential:   plaintext,
		Endpoint:     "/v1/moderate/text",
		RequestID:    "req-1",
		RequestBytes: 42,
	}, okCall)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if key == nil || key.ID == 0 {
		t.Fatal("expected resolved credential")
	}
	if string(payload) != `{"flagged":false}` {
		t.Fatalf("unexpected payload: %s", payload)
	}

	records := recorder.all()
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}
	record := records[0]
	if record.Status != usage.StatusSuccess {
		t.Fatalf("expected success status, got %s", record.Status)
	}
	if record.KeyID != key.ID {
		t.Fatalf("record attributed to key %d, want %d", record.KeyID, key.ID)
	}
	if record.UID != "req-1" {
		t.Fatalf("uid mismatch: %s", record.UID)
	}
	if string(record.Result) != `{"flagged":false}` {
		t.Fatalf("result mismatch: %s", record.Result)
	}
	if record.RequestBytes != 42 {
		t.Fatalf("request bytes mismatch: %d", record.RequestBytes)
	}
}

func TestProcessUnauthorizedOutcomes(t *testing.T) {
	g, store, recorder, plaintext := newTestGate(t, 10)

	key, err := store.Resolve(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := store.Revoke(context.Background(), key.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	tests := []struct {
		name       string
		credential string
	}{
		{"malformed", "not-a-key"},
		{"wrong prefix", "other_live_AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"unknown", "pal_live_AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"revoked", plaintext},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(recorder.all())

			_, _, err := g.Process(context.Background(), &Request{
				Credential: tt.credential,
				Endpoint:   "/v1/moderate/text",
				RequestID:  "req-" + tt.name,
			}, okCall)
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if err.Error() != ErrUnauthorized.Error() {
				t.Fatalf("outcomes must be indistinguishable, got %q", err.Error())
			}

			records := recorder.all()
			if len(records) != before+1 {
				t.Fatalf("expected exactly 1 new record, got %d", len(records)-before)
			}
			record := records[len(records)-1]
			if record.Status != usage.StatusUnauthorized {
				t.Fatalf("expected unauthorized status, got %s", record.Status)
			}
			if record.KeyID != 0 {
				t.Fatalf("unauthorized record must not attribute a key, got %d", record.KeyID)
			}
		})
	}
}

func TestProcessRateLimited(t *testing.T) {
	g, _, recorder, plaintext := newTestGate(t, 2)

	for i := 0; i < 2; i++ {
		if _, _, err := g.Process(context.Background(), &Request{
			Credential: plaintext,
			Endpoint:   "/v1/moderate/text",
			RequestID:  "req-ok",
		}, okCall); err != nil {
			t.Fatalf("Process %d: %v", i, err)
		}
	}

	_, key, err := g.Process(context.Background(), &Request{
		Credential: plaintext,
		Endpoint:   "/v1/moderate/text",
		RequestID:  "req-limited",
	}, okCall)

	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if limited.RetryAfter <= 0 || limited.RetryAfter > time.Minute {
		t.Fatalf("retry after out of range: %s", limited.RetryAfter)
	}
	if key == nil {
		t.Fatal("rate limited requests still resolve the credential")
	}

	records := recorder.all()
	last := records[len(records)-1]
	if last.Status != usage.StatusRateLimited {
		t.Fatalf("expected rate_limited status, got %s", last.Status)
	}
	if last.KeyID != key.ID {
		t.Fatalf("rate limited record attributed to key %d, want %d", last.KeyID, key.ID)
	}
	if last.Result != nil {
		t.Fatal("rejected requests must not carry a result payload")
	}
}

func TestUnauthorizedDoesNotConsumeBudget(t *testing.T) {
	g, _, _, plaintext := newTestGate(t, 2)

	// Hammer with bad credentials first.
	for i := 0; i < 20; i++ {
		g.Process(context.Background(), &Request{
			Credential: "pal_live_AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			Endpoint:   "/v1/moderate/text",
			RequestID:  "req-bad",
		}, okCall)
	}

	// Valid credential still has its full window.
	for i := 0; i < 2; i++ {
		if _, _, err := g.Process(context.Background(), &Request{
			Credential: plaintext,
			Endpoint:   "/v1/moderate/text",
			RequestID:  "req-good",
		}, okCall); err != nil {
			t.Fatalf("expected full budget after unauthorized traffic, got %v", err)
		}
	}
}

func TestProcessDownstreamError(t *testing.T) {
	g, _, recorder, plaintext := newTestGate(t, 10)

	cause := errors.New("connection refused")
	_, key, err := g.Process(context.Background(), &Request{
		Credential: plaintext,
		Endpoint:   "/v1/moderate/image",
		RequestID:  "req-down",
	}, func(ctx context.Context) (json.RawMessage, error) {
		return nil, cause
	})

	var downstream *DownstreamError
	if !errors.As(err, &downstream) {
		t.Fatalf("expected DownstreamError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be wrapped")
	}

	records := recorder.all()
	last := records[len(records)-1]
	if last.Status != usage.StatusDownstreamError {
		t.Fatalf("expected downstream_error status, got %s", last.Status)
	}
	if last.KeyID != key.ID {
		t.Fatalf("downstream failure still attributes the key, got %d want %d", last.KeyID, key.ID)
	}
}

func TestDownstreamErrorConsumesBudget(t *testing.T) {
	g, _, _, plaintext := newTestGate(t, 2)

	fail := func(ctx context.Context) (json.RawMessage, error) {
		return nil, errors.New("boom")
	}
	for i := 0; i < 2; i++ {
		g.Process(context.Background(), &Request{
			Credential: plaintext,
			Endpoint:   "/v1/moderate/text",
			RequestID:  "req-fail",
		}, fail)
	}

	_, _, err := g.Process(context.Background(), &Request{
		Credential: plaintext,
		Endpoint:   "/v1/moderate/text",
		RequestID:  "req-after",
	}, okCall)

	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("admitted requests consume budget even on failure, got %v", err)
	}
}

func TestRecorderFailureDoesNotAlterResponse(t *testing.T) {
	g, _, recorder, plaintext := newTestGate(t, 10)
	recorder.fail = true

	payload, _, err := g.Process(context.Background(), &Request{
		Credential: plaintext,
		Endpoint:   "/v1/moderate/text",
		RequestID:  "req-lossy",
	}, okCall)
	if err != nil {
		t.Fatalf("recording failure must not surface to the caller: %v", err)
	}
	if string(payload) != `{"flagged":false}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
}
