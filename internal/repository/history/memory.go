package history

import (
	"context"
	"sync"
)

// Memory is an in-process history, used when no database is configured.
type Memory struct {
	mu       sync.RWMutex
	items    map[string][]string
	capacity int
}

// NewMemory creates an in-memory history. capacity <= 0 keeps every entry.
func NewMemory(capacity int) *Memory {
	return &Memory{items: make(map[string][]string), capacity: capacity}
}

// Append adds value to the tail of the history stored under key.
func (m *Memory) Append(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := append(m.items[key], value)
	if m.capacity > 0 && len(items) > m.capacity {
		items = append([]string(nil), items[len(items)-m.capacity:]...)
	}
	m.items[key] = items
	return nil
}

// List returns a copy of the history stored under key.
func (m *Memory) List(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.items[key]))
	copy(out, m.items[key])
	return out, nil
}

// Latest returns the newest entry stored under key.
func (m *Memory) Latest(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.items[key]
	if len(items) == 0 {
		return "", false, nil
	}
	return items[len(items)-1], true, nil
}
