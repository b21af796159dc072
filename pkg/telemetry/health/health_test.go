package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLivenessAlwaysOK(t *testing.T) {
	checker := New(time.Second)
	checker.Register("broken", func(ctx context.Context) error {
		return errors.New("down")
	})

	recorder := httptest.NewRecorder()
	checker.LivenessHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/health", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("liveness must not depend on component checks, got %d", recorder.Code)
	}
}

func TestReadinessAggregates(t *testing.T) {
	checker := New(time.Second)
	checker.Register("keys", func(ctx context.Context) error { return nil })
	checker.Register("usage", func(ctx context.Context) error { return nil })

	status := checker.Readiness(context.Background())
	if status.Status != "ready" {
		t.Fatalf("expected ready, got %s", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Fatalf("expected 2 check results, got %d", len(status.Checks))
	}
}

func TestReadinessDegradesOnFailure(t *testing.T) {
	checker := New(time.Second)
	checker.Register("keys", func(ctx context.Context) error { return nil })
	checker.Register("usage", func(ctx context.Context) error {
		return errors.New("database locked")
	})

	recorder := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/ready", nil))

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}

	var status Status
	if err := json.Unmarshal(recorder.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Status != "degraded" {
		t.Fatalf("expected degraded, got %s", status.Status)
	}
	if status.Checks["usage"].Message != "database locked" {
		t.Fatalf("expected failure message, got %+v", status.Checks["usage"])
	}
}

func TestReadinessTimeout(t *testing.T) {
	checker := New(50 * time.Millisecond)
	checker.Register("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	status := checker.Readiness(context.Background())
	if status.Status != "degraded" {
		t.Fatalf("expected degraded after timeout, got %s", status.Status)
	}
}

func TestVersionHandler(t *testing.T) {
	recorder := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2026-08-01")(recorder, httptest.NewRequest("GET", "/version", nil))

	var info VersionInfo
	if err := json.Unmarshal(recorder.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Fatalf("unexpected version info: %+v", info)
	}
	if info.GoVersion == "" {
		t.Fatal("go version missing")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	checker := New(time.Second)

	recorder := httptest.NewRecorder()
	checker.LivenessHandler().ServeHTTP(recorder, httptest.NewRequest("POST", "/health", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}
