package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"palisade-hq/palisade/pkg/gate"
	"palisade-hq/palisade/pkg/moderation"
	"palisade-hq/palisade/pkg/server/middleware"
)

func (s *Server) handleModerateText(w http.ResponseWriter, r *http.Request) {
	var input moderation.TextInput
	body, ok := s.readInput(w, r, &input)
	if !ok {
		return
	}
	if strings.TrimSpace(input.Text) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "text must not be empty")
		return
	}

	s.moderate(w, r, int64(len(body)), func(ctx context.Context) (json.RawMessage, error) {
		verdict, err := s.backend.ModerateText(ctx, &input)
		if err != nil {
			return nil, err
		}
		return json.Marshal(verdict)
	})
}

func (s *Server) handleModerateImage(w http.ResponseWriter, r *http.Request) {
	var input moderation.ImageInput
	body, ok := s.readInput(w, r, &input)
	if !ok {
		return
	}
	if strings.TrimSpace(input.ImageURL) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "image_url must not be empty")
		return
	}

	s.moderate(w, r, int64(len(body)), func(ctx context.Context) (json.RawMessage, error) {
		verdict, err := s.backend.ModerateImage(ctx, &input)
		if err != nil {
			return nil, err
		}
		return json.Marshal(verdict)
	})
}

func (s *Server) handleModerateContextual(w http.ResponseWriter, r *http.Request) {
	var input moderation.ContextualInput
	body, ok := s.readInput(w, r, &input)
	if !ok {
		return
	}
	if len(input.Messages) == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "messages must not be empty")
		return
	}

	s.moderate(w, r, int64(len(body)), func(ctx context.Context) (json.RawMessage, error) {
		verdict, err := s.backend.ModerateContextual(ctx, &input)
		if err != nil {
			return nil, err
		}
		return json.Marshal(verdict)
	})
}

// readInput slurps the request body and decodes it into input. Malformed
// or oversized bodies get a 400 before the request reaches the gate, so
// they produce no request log record and consume no rate limit budget.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request, input interface{}) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "could not read request body")
		return nil, false
	}
	if err := json.Unmarshal(body, input); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return nil, false
	}
	return body, true
}

// moderate runs a well-formed request through the gate pipeline and maps
// the outcome onto the HTTP surface.
func (s *Server) moderate(w http.ResponseWriter, r *http.Request, bodyBytes int64, call gate.Downstream) {
	start := time.Now()
	endpoint := r.URL.Path

	req := &gate.Request{
		Credential:   apiKey(r),
		Endpoint:     endpoint,
		RequestID:    middleware.GetRequestID(r.Context()),
		RequestBytes: bodyBytes,
	}

	payload, _, err := s.gate.Process(r.Context(), req, call)

	status := "success"
	switch {
	case err == nil:
		writeRaw(w, http.StatusOK, payload)

	case errors.Is(err, gate.ErrUnauthorized):
		status = "unauthorized"
		if s.metrics != nil {
			s.metrics.RecordAuthFailure()
		}
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or revoked API key")

	default:
		var rateLimited *gate.RateLimitedError
		var downstream *gate.DownstreamError
		switch {
		case errors.As(err, &rateLimited):
			status = "rate_limited"
			if s.metrics != nil {
				s.metrics.RecordRateLimited()
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(rateLimited.RetryAfter)))
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rateLimited.Limit))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", rateLimited.Reset.Unix()))
			writeError(w, r, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

		case errors.As(err, &downstream):
			status = "downstream_error"
			writeError(w, r, http.StatusBadGateway, "backend_error", "moderation backend request failed")

		default:
			status = "downstream_error"
			writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordRequest(endpoint, status, time.Since(start))
	}
}

// retryAfterSeconds rounds a wait up to whole seconds, at least one.
func retryAfterSeconds(wait time.Duration) int64 {
	seconds := int64((wait + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
