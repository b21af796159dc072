package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"palisade-hq/palisade/pkg/usage"
)

// MemoryStorage implements usage.Storage with an in-memory slice.
// It exists for tests and ephemeral deployments.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*usage.Record
	nextID  int64
	closed  bool
}

// NewMemoryStorage creates an empty in-memory request log backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{nextID: 1}
}

// Append persists a record and fills in its storage-assigned ID.
func (m *MemoryStorage) Append(ctx context.Context, record *usage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return usage.NewStorageError("memory", "append", context.Canceled)
	}

	record.ID = m.nextID
	m.nextID++

	stored := *record
	m.records = append(m.records, &stored)
	return nil
}

// Query retrieves records matching the filters, newest first.
func (m *MemoryStorage) Query(ctx context.Context, query *usage.Query) ([]*usage.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}

	matched := []*usage.Record{}
	skipped := 0
	for i := len(m.records) - 1; i >= 0; i-- {
		record := m.records[i]
		if !matches(record, query) {
			continue
		}
		if skipped < query.Offset {
			skipped++
			continue
		}
		if len(matched) >= limit {
			break
		}
		recordCopy := *record
		matched = append(matched, &recordCopy)
	}
	return matched, nil
}

// Get returns a single record by storage id.
func (m *MemoryStorage) Get(ctx context.Context, id int64) (*usage.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.records {
		if record.ID == id {
			recordCopy := *record
			return &recordCopy, nil
		}
	}
	return nil, usage.ErrRecordNotFound
}

// Count returns the number of records matching the filters.
func (m *MemoryStorage) Count(ctx context.Context, query *usage.Query) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, record := range m.records {
		if matches(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes records older than the given time.
func (m *MemoryStorage) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var removed int64
	for _, record := range m.records {
		if record.Timestamp.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	m.records = kept
	return removed, nil
}

// Close releases resources held by the backend.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func matches(record *usage.Record, query *usage.Query) bool {
	if query.KeyID != nil && record.KeyID != *query.KeyID {
		return false
	}
	if query.Endpoint != "" && record.Endpoint != query.Endpoint {
		return false
	}
	if query.Status != "" && record.Status != query.Status {
		return false
	}
	if query.StartTime != nil && record.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.Timestamp.After(*query.EndTime) {
		return false
	}
	if query.Contains != "" && !strings.Contains(string(record.Result), query.Contains) {
		return false
	}
	return true
}
