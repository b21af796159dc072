package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"palisade-hq/palisade/pkg/server/middleware"
)

// errorEnvelope is the uniform error response shape of the service.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes an already-serialized JSON payload.
func writeRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// writeError writes the uniform error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
	}})
}

// decodeJSON decodes the request body into v. Returns a client-facing
// message on failure.
func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// apiKey extracts the caller's credential from the Authorization header
// (Bearer scheme) or the X-API-Key header. An absent credential returns
// the empty string, which fails resolution like any malformed key.
func apiKey(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}
	return r.Header.Get("X-API-Key")
}
