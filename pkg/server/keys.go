package server

import (
	"errors"
	"net/http"

	"palisade-hq/palisade/pkg/keys"
)

// handleCurrentKey serves the caller's own credential metadata. The caller
// authenticates with the key itself; malformed, unknown, and revoked keys
// all produce the same 401.
func (s *Server) handleCurrentKey(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveSelf(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, key.Redact())
}

// handleRevokeCurrentKey lets a caller revoke their own credential.
// Revocation is terminal; the key cannot authenticate this endpoint again.
func (s *Server) handleRevokeCurrentKey(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveSelf(w, r)
	if !ok {
		return
	}

	if err := s.keys.Revoke(r.Context(), key.ID); err != nil {
		s.logger.Error("self-service revocation failed", "key_id", key.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not revoke key")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordKeyRevoked()
	}
	s.logger.Info("key revoked by owner", "key_id", key.ID)
	w.WriteHeader(http.StatusNoContent)
}

// resolveSelf authenticates the self-service surface with the presented
// API key. It does not touch the rate limiter and emits no request log
// record; only moderation traffic counts against a key's budget.
func (s *Server) resolveSelf(w http.ResponseWriter, r *http.Request) (*keys.Key, bool) {
	key, err := s.keys.Resolve(r.Context(), apiKey(r))
	if err != nil {
		if errors.Is(err, keys.ErrMalformedKey) ||
			errors.Is(err, keys.ErrKeyNotFound) ||
			errors.Is(err, keys.ErrKeyRevoked) {
			if s.metrics != nil {
				s.metrics.RecordAuthFailure()
			}
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or revoked API key")
			return nil, false
		}

		s.logger.Error("credential resolution failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return nil, false
	}
	return key, true
}
