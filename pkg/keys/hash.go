package keys

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. These follow the RFC 9106 low-memory recommendation,
// which keeps per-verification cost high enough to frustrate offline
// cracking while staying cheap enough for the linear-scan lookup in the
// credential store.
const (
	hashTime    = 3
	hashMemory  = 32 * 1024 // KiB
	hashThreads = 4
	hashLen     = 32
	saltLen     = 16
)

// NewSalt returns saltLen cryptographically random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// HashSecret derives the storage hash for a plaintext secret with the given
// per-key salt using argon2id. The same (salt, plaintext) pair always
// produces the same hash, which is what allows verification by re-derivation.
func HashSecret(salt []byte, plaintext string) []byte {
	return argon2.IDKey([]byte(plaintext), salt, hashTime, hashMemory, hashThreads, hashLen)
}

// VerifySecret reports whether candidate matches the stored hash for the
// given salt. The comparison is constant-time so the duration does not
// depend on how many leading bytes match.
func VerifySecret(salt, storedHash []byte, candidate string) bool {
	derived := HashSecret(salt, candidate)
	return subtle.ConstantTimeCompare(derived, storedHash) == 1
}
