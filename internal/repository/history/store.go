package history

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/logview/internal/domain"
)

// listStore is the consumer interface for the history store (ISP).
type listStore interface {
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Store keeps query histories as Redis lists, oldest first.
type Store struct {
	db       listStore
	capacity int
}

// New creates a history store. capacity <= 0 keeps every entry.
func New(s listStore, capacity int) *Store {
	return &Store{db: s, capacity: capacity}
}

// Append adds value to the tail of the history stored under key.
func (s *Store) Append(ctx context.Context, key, value string) error {
	k := redisKey(key)
	if err := s.db.RPush(ctx, k, value); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if s.capacity > 0 {
		if err := s.db.LTrim(ctx, k, -int64(s.capacity), -1); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

// List returns the history stored under key. A missing history is empty.
func (s *Store) List(ctx context.Context, key string) ([]string, error) {
	items, err := s.db.LRange(ctx, redisKey(key), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return items, nil
}

// Latest returns the newest entry stored under key without reading the
// whole list.
func (s *Store) Latest(ctx context.Context, key string) (string, bool, error) {
	items, err := s.db.LRange(ctx, redisKey(key), -1, -1)
	if err != nil {
		return "", false, fmt.Errorf("read latest history entry: %w", err)
	}
	if len(items) == 0 {
		return "", false, nil
	}
	return items[0], true, nil
}

func redisKey(key string) string {
	return domain.KeyPrefix + "history:" + key
}
