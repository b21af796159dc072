package middleware

import "net/http"

// BodyLimit caps the request body at maxBytes using http.MaxBytesReader.
// Reads past the cap fail inside the handler, which surfaces as a 400 on
// JSON decoding. A zero limit disables the middleware.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
