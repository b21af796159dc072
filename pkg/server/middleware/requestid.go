package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

// RequestID assigns a unique request ID to each request and stores it in
// the request context along with the start time. If the client supplied an
// X-Request-ID header, that value is reused for correlation across
// services.
//
// The ID is echoed back in the X-Request-ID response header and becomes
// the UID of the request log record.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, StartTimeKey, time.Now())

		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from the context, or empty string if
// not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetStartTime returns the request start time from the context.
func GetStartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

// generateRequestID produces a 32 character hex ID from 16 random bytes.
func generateRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read only fails when the system entropy source is broken.
		// Fall back to a timestamp so requests remain traceable.
		return hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000")))[:32]
	}
	return hex.EncodeToString(buf)
}
