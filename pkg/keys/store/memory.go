package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"palisade-hq/palisade/pkg/keys"
)

// MemoryStore implements Store using an in-memory map.
// This implementation is intended for testing only.
type MemoryStore struct {
	mu     sync.RWMutex
	codec  *keys.Codec
	nextID int64
	keys   map[int64]*keys.Key
}

// NewMemoryStore creates a new in-memory credential store.
func NewMemoryStore(codec *keys.Codec) *MemoryStore {
	return &MemoryStore{
		codec:  codec,
		nextID: 1,
		keys:   make(map[int64]*keys.Key),
	}
}

// Issue creates a new credential and returns the record plus the one-time
// plaintext secret.
func (s *MemoryStore) Issue(ctx context.Context, name string) (*keys.Key, string, error) {
	plaintext, err := s.codec.Generate()
	if err != nil {
		return nil, "", NewStorageError("memory", "issue", err)
	}

	salt, err := keys.NewSalt()
	if err != nil {
		return nil, "", NewStorageError("memory", "issue", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := &keys.Key{
		ID:         s.nextID,
		Name:       name,
		Prefix:     s.codec.Prefix(),
		SecretHash: keys.HashSecret(salt, plaintext),
		Salt:       salt,
		CreatedAt:  time.Now().UTC(),
	}
	s.nextID++
	s.keys[key.ID] = key

	keyCopy := *key
	return &keyCopy, plaintext, nil
}

// Resolve scans the active credentials for a salted-hash match.
func (s *MemoryStore) Resolve(ctx context.Context, candidate string) (*keys.Key, error) {
	if _, err := s.codec.Parse(candidate); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.keys {
		if !key.Active() {
			continue
		}
		if keys.VerifySecret(key.Salt, key.SecretHash, candidate) {
			keyCopy := *key
			return &keyCopy, nil
		}
	}

	return nil, keys.ErrKeyNotFound
}

// Revoke sets RevokedAt if currently unset. Idempotent.
func (s *MemoryStore) Revoke(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[id]
	if !ok {
		return keys.ErrKeyNotFound
	}
	if key.RevokedAt == nil {
		now := time.Now().UTC()
		key.RevokedAt = &now
	}
	return nil
}

// Get returns the credential with the given id, revoked or not.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*keys.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[id]
	if !ok {
		return nil, keys.ErrKeyNotFound
	}
	keyCopy := *key
	return &keyCopy, nil
}

// List returns all credentials newest first, redacted for admin display.
func (s *MemoryStore) List(ctx context.Context) ([]keys.Redacted, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]keys.Redacted, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, key.Redact())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
