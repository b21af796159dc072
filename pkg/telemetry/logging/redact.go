package logging

import (
	"io"
	"regexp"
)

var (
	// credentialPattern matches issued API keys of the form
	// <word>_<env>_<base64url secret>, e.g. pal_live_....
	credentialPattern = regexp.MustCompile(`\b[a-z][a-z0-9]{1,11}_(?:live|test)_[A-Za-z0-9_-]{8,}\b`)

	// bearerPattern matches Authorization bearer values.
	bearerPattern = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`)
)

// Redact masks credential material in s.
func Redact(s string) string {
	s = credentialPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Keep the prefix so operators can still recognize the key family.
		for i, n := 0, 0; i < len(match); i++ {
			if match[i] == '_' {
				n++
				if n == 2 {
					return match[:i+1] + "[REDACTED]"
				}
			}
		}
		return "[REDACTED]"
	})
	s = bearerPattern.ReplaceAllString(s, "Bearer [REDACTED]")
	return s
}

// RedactingWriter masks credential material in everything written through
// it. Log lines are written in single Write calls by the slog handlers, so
// per-call redaction cannot split a credential across writes.
type RedactingWriter struct {
	w io.Writer
}

// NewRedactingWriter wraps w with credential redaction.
func NewRedactingWriter(w io.Writer) *RedactingWriter {
	return &RedactingWriter{w: w}
}

// Write implements io.Writer.
func (r *RedactingWriter) Write(p []byte) (int, error) {
	redacted := Redact(string(p))
	if _, err := r.w.Write([]byte(redacted)); err != nil {
		return 0, err
	}
	// Report the original length so the handler never sees a short write.
	return len(p), nil
}
