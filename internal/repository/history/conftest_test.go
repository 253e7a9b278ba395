package history

import "context"

// mockListStore implements the consumer interface for tests.
type mockListStore struct {
	rpushFn  func(ctx context.Context, key string, values ...string) error
	lrangeFn func(ctx context.Context, key string, start, stop int64) ([]string, error)
	ltrimFn  func(ctx context.Context, key string, start, stop int64) error
}

func (m *mockListStore) RPush(ctx context.Context, key string, values ...string) error {
	if m.rpushFn != nil {
		return m.rpushFn(ctx, key, values...)
	}
	return nil
}

func (m *mockListStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if m.lrangeFn != nil {
		return m.lrangeFn(ctx, key, start, stop)
	}
	return []string{}, nil
}

func (m *mockListStore) LTrim(ctx context.Context, key string, start, stop int64) error {
	if m.ltrimFn != nil {
		return m.ltrimFn(ctx, key, start, stop)
	}
	return nil
}
