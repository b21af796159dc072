//go:build integration

package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"palisade-hq/palisade/pkg/config"
	"palisade-hq/palisade/pkg/gate"
	"palisade-hq/palisade/pkg/keys"
	keystore "palisade-hq/palisade/pkg/keys/store"
	"palisade-hq/palisade/pkg/limits/ratelimit"
	"palisade-hq/palisade/pkg/moderation"
	"palisade-hq/palisade/pkg/server"
	"palisade-hq/palisade/pkg/usage"
	"palisade-hq/palisade/pkg/usage/recorder"
	usagestorage "palisade-hq/palisade/pkg/usage/storage"
)

const adminToken = "integration-admin-token-0123456789"

// fakeModerationBackend mimics the downstream API surface the client
// talks to.
func fakeModerationBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /moderations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"flagged":true,"categories":{"violence":true},"category_scores":{"violence":0.97}}]}`)
	})
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		answer := `{\"safe\": true, \"categories\": [], \"confidence\": 0.01, \"suggested_action\": \"allow\"}`
		fmt.Fprintf(w, `{"choices":[{"message":{"content":"%s"}}]}`, answer)
	})

	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)
	return backend
}

// TestGatewayIntegration exercises the full stack: SQLite credential and
// request log stores, the async recorder, the rate limiter, the gate, and
// the HTTP surface, against a fake downstream backend.
func TestGatewayIntegration(t *testing.T) {
	dir := t.TempDir()
	backend := fakeModerationBackend(t)

	cfg := config.DefaultConfig()
	cfg.Admin.Token = adminToken
	cfg.Limits.RequestsPerMinute = 2
	cfg.Moderation.BaseURL = backend.URL
	cfg.Moderation.APIKey = "sk-test"

	codec, err := keys.NewCodec(keys.DefaultPrefix, keys.DefaultSecretBytes)
	if err != nil {
		t.Fatalf("create codec: %v", err)
	}
	keyStore, err := keystore.NewSQLiteStore(keystore.SQLiteConfig{
		Path: filepath.Join(dir, "keys.db"),
	}, codec)
	if err != nil {
		t.Fatalf("open key store: %v", err)
	}
	defer keyStore.Close()

	usageStore, err := usagestorage.NewSQLiteStorage(&usagestorage.SQLiteConfig{
		Path:         filepath.Join(dir, "usage.db"),
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("open usage storage: %v", err)
	}
	defer usageStore.Close()

	usageRecorder := recorder.NewRecorder(usageStore, recorder.DefaultConfig())

	limiter := ratelimit.NewFixedWindow(ratelimit.Config{
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
		Window:            time.Minute,
	})

	client := moderation.NewClient(&moderation.Config{
		BaseURL: cfg.Moderation.BaseURL,
		APIKey:  cfg.Moderation.APIKey,
		Timeout: 10 * time.Second,
	})

	srv, err := server.New(server.Options{
		Config:  cfg,
		Gate:    gate.New(keyStore, limiter, usageRecorder),
		Keys:    keyStore,
		Usage:   usageStore,
		Backend: client,
		Version: "integration",
	})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}

	gateway := httptest.NewServer(srv.Handler())
	defer gateway.Close()

	// Issue a key through the admin surface.
	issueBody := bytes.NewBufferString(`{"name":"integration@example.com"}`)
	issueReq, _ := http.NewRequest("POST", gateway.URL+"/v1/keys", issueBody)
	issueReq.Header.Set("Authorization", "Bearer "+adminToken)

	issueResp, err := http.DefaultClient.Do(issueReq)
	if err != nil {
		t.Fatalf("issue request: %v", err)
	}
	defer issueResp.Body.Close()
	if issueResp.StatusCode != http.StatusCreated {
		t.Fatalf("issue: expected 201, got %d", issueResp.StatusCode)
	}

	var issued struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(issueResp.Body).Decode(&issued); err != nil {
		t.Fatalf("decode issued key: %v", err)
	}

	moderate := func(credential, body string) *http.Response {
		req, _ := http.NewRequest("POST", gateway.URL+"/v1/moderate/text", bytes.NewBufferString(body))
		req.Header.Set("Authorization", "Bearer "+credential)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("moderate request: %v", err)
		}
		return resp
	}

	// First request: flagged verdict from the real client wire format.
	resp := moderate(issued.APIKey, `{"text":"threatening message"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("moderate: expected 200, got %d", resp.StatusCode)
	}
	var verdict moderation.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	resp.Body.Close()
	if verdict.Safe || verdict.SuggestedAction != "block" {
		t.Errorf("expected flagged verdict, got %+v", verdict)
	}

	// Second request consumes the remaining budget; third is rejected.
	resp = moderate(issued.APIKey, `{"text":"another"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second request: expected 200, got %d", resp.StatusCode)
	}
	resp = moderate(issued.APIKey, `{"text":"over budget"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// Unknown key never reaches the backend and never consumes budget.
	resp = moderate(keys.DefaultPrefix+"deadbeefdeadbeefdeadbeef", `{"text":"probe"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad key: expected 401, got %d", resp.StatusCode)
	}

	// Drain the async recorder, then check the persisted request log.
	if err := usageRecorder.Close(); err != nil {
		t.Fatalf("close recorder: %v", err)
	}

	logsReq, _ := http.NewRequest("GET", gateway.URL+"/v1/admin/logs", nil)
	logsReq.Header.Set("Authorization", "Bearer "+adminToken)
	logsResp, err := http.DefaultClient.Do(logsReq)
	if err != nil {
		t.Fatalf("logs request: %v", err)
	}
	defer logsResp.Body.Close()

	var page struct {
		Records []*usage.Record `json:"records"`
		Count   int64           `json:"count"`
	}
	if err := json.NewDecoder(logsResp.Body).Decode(&page); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if page.Count != 4 {
		t.Fatalf("expected 4 request log records, got %d", page.Count)
	}

	byStatus := map[usage.Status]int{}
	for _, record := range page.Records {
		byStatus[record.Status]++
	}
	if byStatus[usage.StatusSuccess] != 2 || byStatus[usage.StatusRateLimited] != 1 || byStatus[usage.StatusUnauthorized] != 1 {
		t.Errorf("unexpected status distribution: %v", byStatus)
	}
}
