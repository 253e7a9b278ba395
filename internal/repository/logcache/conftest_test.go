package logcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/logview/internal/db"
	"github.com/kailas-cloud/logview/internal/domain/document"
	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
	"github.com/kailas-cloud/logview/internal/domain/value"
)

type mockFetcher struct {
	result *domlogs.Result
	err    error
	calls  int
}

func (m *mockFetcher) Fetch(_ context.Context, _ domlogs.Query) (*domlogs.Result, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedFetcher(t *testing.T, inner *mockFetcher) (*CachedFetcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cf := New(inner, ms, time.Minute, nil, zap.NewNop())
	return cf, ms
}

func testResult(t *testing.T) *domlogs.Result {
	t.Helper()
	doc, err := document.New(value.MustParse(`{"_id":"1","_index":"app","_source":{"msg":"hello","n":1.50}}`))
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return &domlogs.Result{
		Documents: []document.Document{doc},
		Buckets:   []domlogs.Bucket{{Key: 1000, DocCount: 1}},
		Hits:      1,
		Took:      3,
	}
}

var testQuery = domlogs.Query{
	DataView: "app", IndexPattern: "app-*", TimestampField: "@timestamp",
	Query: "*", TimeStart: 100, TimeEnd: 200,
}
