package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"palisade-hq/palisade/pkg/keys"
)

func newTestCodec(t *testing.T) *keys.Codec {
	t.Helper()
	codec, err := keys.NewCodec("pal_test_", 24)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

// backends returns one instance of every Store implementation so each test
// exercises sqlite and memory identically.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	codec := newTestCodec(t)

	sqlite, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "keys.db"),
	}, codec)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(codec),
	}
}

func TestStore_IssueAndResolve(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			key, plaintext, err := s.Issue(ctx, "alice@example.com")
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}
			if key.ID == 0 {
				t.Error("issued key has zero id")
			}
			if !strings.HasPrefix(plaintext, "pal_test_") {
				t.Errorf("plaintext %q missing prefix", plaintext)
			}
			if !key.Active() {
				t.Error("freshly issued key is not active")
			}

			resolved, err := s.Resolve(ctx, plaintext)
			if err != nil {
				t.Fatalf("Resolve after Issue failed: %v", err)
			}
			if resolved.ID != key.ID {
				t.Errorf("Resolve returned id %d, want %d", resolved.ID, key.ID)
			}
			if resolved.Name != "alice@example.com" {
				t.Errorf("Resolve returned name %q", resolved.Name)
			}
		})
	}
}

func TestStore_PlaintextNeverPersisted(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			key, plaintext, err := s.Issue(ctx, "bob")
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}

			if bytes.Contains(key.SecretHash, []byte(plaintext)) {
				t.Error("secret hash contains the plaintext")
			}
			if bytes.Contains(key.Salt, []byte(plaintext)) {
				t.Error("salt contains the plaintext")
			}
		})
	}
}

func TestSQLiteStore_PlaintextNotInDatabaseFile(t *testing.T) {
	codec := newTestCodec(t)
	path := filepath.Join(t.TempDir(), "keys.db")

	s, err := NewSQLiteStore(SQLiteConfig{Path: path}, codec)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	_, plaintext, err := s.Issue(context.Background(), "carol")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The plaintext must not appear byte-for-byte anywhere in the database
	// file, including the WAL remnants.
	for _, suffix := range []string{"", "-wal"} {
		data, err := os.ReadFile(path + suffix)
		if err != nil {
			continue // WAL may have been checkpointed away
		}
		if bytes.Contains(data, []byte(plaintext)) {
			t.Errorf("plaintext found in database file %s", path+suffix)
		}
	}
}

func TestStore_ResolveErrors(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := s.Resolve(ctx, "garbage"); !errors.Is(err, keys.ErrMalformedKey) {
				t.Errorf("Resolve(garbage) error = %v, want ErrMalformedKey", err)
			}

			if _, err := s.Resolve(ctx, "pal_test_does-not-exist"); !errors.Is(err, keys.ErrKeyNotFound) {
				t.Errorf("Resolve(unknown) error = %v, want ErrKeyNotFound", err)
			}
		})
	}
}

func TestStore_RevokedKeyCannotResolve(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			key, plaintext, err := s.Issue(ctx, "dave")
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}

			if err := s.Revoke(ctx, key.ID); err != nil {
				t.Fatalf("Revoke failed: %v", err)
			}

			if _, err := s.Resolve(ctx, plaintext); !errors.Is(err, keys.ErrKeyNotFound) {
				t.Errorf("Resolve of revoked key error = %v, want ErrKeyNotFound", err)
			}

			// The record still exists and is listable.
			got, err := s.Get(ctx, key.ID)
			if err != nil {
				t.Fatalf("Get of revoked key failed: %v", err)
			}
			if got.RevokedAt == nil {
				t.Error("revoked key has nil RevokedAt")
			}
		})
	}
}

func TestStore_RevokeIdempotent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			key, _, err := s.Issue(ctx, "erin")
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}

			if err := s.Revoke(ctx, key.ID); err != nil {
				t.Fatalf("first Revoke failed: %v", err)
			}
			first, err := s.Get(ctx, key.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}

			if err := s.Revoke(ctx, key.ID); err != nil {
				t.Fatalf("second Revoke returned error: %v", err)
			}
			second, err := s.Get(ctx, key.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}

			if !first.RevokedAt.Equal(*second.RevokedAt) {
				t.Errorf("second revoke changed RevokedAt: %v -> %v", first.RevokedAt, second.RevokedAt)
			}
		})
	}
}

func TestStore_RevokeUnknownID(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Revoke(context.Background(), 9999); !errors.Is(err, keys.ErrKeyNotFound) {
				t.Errorf("Revoke(9999) error = %v, want ErrKeyNotFound", err)
			}
		})
	}
}

func TestStore_ListIncludesRevokedAndRedacts(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a, _, err := s.Issue(ctx, "first")
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}
			b, _, err := s.Issue(ctx, "second")
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}
			if err := s.Revoke(ctx, a.ID); err != nil {
				t.Fatalf("Revoke failed: %v", err)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("List returned %d records, want 2", len(list))
			}

			// Newest first.
			if list[0].ID != b.ID || list[1].ID != a.ID {
				t.Errorf("List order = [%d, %d], want [%d, %d]", list[0].ID, list[1].ID, b.ID, a.ID)
			}
			if list[1].Active {
				t.Error("revoked key listed as active")
			}
			if !list[0].Active {
				t.Error("active key listed as revoked")
			}
		})
	}
}
