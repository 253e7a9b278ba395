package logs

import (
	"context"

	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
)

// Fetcher loads a document batch from a backend.
type Fetcher interface {
	Fetch(ctx context.Context, q domlogs.Query) (*domlogs.Result, error)
}

// HistoryStore keeps the list of submitted queries.
type HistoryStore interface {
	Append(ctx context.Context, key, value string) error
	List(ctx context.Context, key string) ([]string, error)
	// Latest returns the newest entry; ok is false for an empty history.
	Latest(ctx context.Context, key string) (value string, ok bool, err error)
}
