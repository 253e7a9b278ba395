package logcache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/logview/internal/db"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process result store, used when no database is configured.
// Expired entries are dropped on the next write.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns the value stored under key or db.ErrKeyNotFound.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		return nil, db.ErrKeyNotFound
	}
	return e.data, nil
}

// SetWithTTL stores a copy of value under key for ttl.
func (m *Memory) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoryEntry{data: append([]byte(nil), value...), expires: now.Add(ttl)}
	return nil
}
