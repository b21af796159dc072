package keys

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// DefaultPrefix identifies live-environment keys.
	DefaultPrefix = "pal_live_"

	// DefaultSecretBytes is the number of random bytes behind each secret
	// before encoding.
	DefaultSecretBytes = 24

	// MinSecretBytes guards against misconfiguration that would weaken keys.
	MinSecretBytes = 16
)

// Codec generates and parses public key strings.
type Codec struct {
	prefix      string
	secretBytes int
}

// NewCodec creates a codec for the given prefix and secret length in bytes.
// Zero values fall back to DefaultPrefix and DefaultSecretBytes.
func NewCodec(prefix string, secretBytes int) (*Codec, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if secretBytes == 0 {
		secretBytes = DefaultSecretBytes
	}
	if secretBytes < MinSecretBytes {
		return nil, fmt.Errorf("secret length %d below minimum %d bytes", secretBytes, MinSecretBytes)
	}

	return &Codec{
		prefix:      prefix,
		secretBytes: secretBytes,
	}, nil
}

// Prefix returns the configured public prefix.
func (c *Codec) Prefix() string {
	return c.prefix
}

// Generate produces a new plaintext key string: the configured prefix
// followed by URL-safe base64 of secretBytes random bytes from crypto/rand.
//
// Generate never reuses or derives material from previous calls; every key
// is independent.
func (c *Codec) Generate() (string, error) {
	raw := make([]byte, c.secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return c.prefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// Parse validates that candidate starts with the configured prefix and
// returns the encoded body. It performs no storage access, which allows
// garbage input to be rejected cheaply before any hash computation.
//
// Returns ErrMalformedKey for an unrecognized prefix or empty body.
func (c *Codec) Parse(candidate string) (body string, err error) {
	if !strings.HasPrefix(candidate, c.prefix) {
		return "", ErrMalformedKey
	}

	body = strings.TrimPrefix(candidate, c.prefix)
	if body == "" {
		return "", ErrMalformedKey
	}

	return body, nil
}
