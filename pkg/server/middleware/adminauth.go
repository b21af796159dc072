package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// AdminAuth guards administrative endpoints with a statically configured
// shared token, presented as "Authorization: Bearer <token>".
//
// The comparison runs over SHA-256 digests so it is constant time and does
// not leak the token length. An empty configured token rejects every
// request; the admin surface never becomes open by misconfiguration.
func AdminAuth(token string) func(http.Handler) http.Handler {
	digest := sha256.Sum256([]byte(token))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := bearerToken(r)
			if token == "" || !ok {
				unauthorized(w, r)
				return
			}

			presentedDigest := sha256.Sum256([]byte(presented))
			if subtle.ConstantTimeCompare(digest[:], presentedDigest[:]) != 1 {
				unauthorized(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":       "unauthorized",
			"message":    "invalid admin token",
			"request_id": GetRequestID(r.Context()),
		},
	})
}
