package keys

import (
	"bytes"
	"testing"
)

func TestNewSalt(t *testing.T) {
	a, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}
	b, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}

	if len(a) != saltLen {
		t.Errorf("salt length = %d, want %d", len(a), saltLen)
	}
	if bytes.Equal(a, b) {
		t.Error("two salts are identical")
	}
}

func TestHashSecret_Deterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}

	h1 := HashSecret(salt, "pal_live_secret")
	h2 := HashSecret(salt, "pal_live_secret")

	if !bytes.Equal(h1, h2) {
		t.Error("same salt and plaintext produced different hashes")
	}
	if len(h1) != hashLen {
		t.Errorf("hash length = %d, want %d", len(h1), hashLen)
	}
}

func TestHashSecret_SaltSeparation(t *testing.T) {
	saltA, _ := NewSalt()
	saltB, _ := NewSalt()

	hA := HashSecret(saltA, "pal_live_secret")
	hB := HashSecret(saltB, "pal_live_secret")

	if bytes.Equal(hA, hB) {
		t.Error("different salts produced the same hash for one plaintext")
	}
}

func TestVerifySecret(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}
	stored := HashSecret(salt, "pal_live_correct")

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"matching secret", "pal_live_correct", true},
		{"wrong secret", "pal_live_wrong", false},
		{"empty candidate", "", false},
		{"near miss", "pal_live_correcT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySecret(salt, stored, tt.candidate); got != tt.want {
				t.Errorf("VerifySecret(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}
