package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"go.uber.org/zap"

	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/document"
	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
	"github.com/kailas-cloud/logview/internal/metrics"
)

const (
	backendName         = "elasticsearch"
	defaultMaxDocuments = 1000
	histogramBuckets    = 30
	aggregationName     = "logcount"
)

var defaultTransport http.RoundTripper = &http.Transport{
	MaxIdleConnsPerHost:   10,
	ResponseHeaderTimeout: 30 * time.Second,
	DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
}

// Config holds the Elasticsearch connection settings.
type Config struct {
	Addresses    []string
	Username     string
	Password     string
	MaxDocuments int
	Logger       *zap.Logger
}

// Fetcher loads log batches straight from Elasticsearch.
type Fetcher struct {
	client       *elasticsearch.Client
	maxDocuments int
	logger       *zap.Logger
}

// NewFetcher creates an Elasticsearch fetcher. It does not contact the cluster.
func NewFetcher(cfg *Config) (*Fetcher, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are required")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: defaultTransport,
	})
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	maxDocs := cfg.MaxDocuments
	if maxDocs <= 0 {
		maxDocs = defaultMaxDocuments
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, maxDocuments: maxDocs, logger: logger}, nil
}

// searchResponse is the part of the _search response the viewer reads.
type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []document.Document `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		LogCount struct {
			Buckets []domlogs.Bucket `json:"buckets"`
		} `json:"logcount"`
	} `json:"aggregations"`
}

// Fetch runs the query against the index pattern of q.
func (f *Fetcher) Fetch(ctx context.Context, q domlogs.Query) (*domlogs.Result, error) {
	body, err := json.Marshal(f.searchBody(q))
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	req := esapi.SearchRequest{
		Index:          []string{q.IndexPattern},
		Body:           bytes.NewReader(body),
		TrackTotalHits: true,
	}

	start := time.Now()
	res, err := req.Do(ctx, f.client)
	if err != nil {
		metrics.ObserveBackend(backendName, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("search %s: %w", q.IndexPattern, domain.NewBackendError(0, err.Error()))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		metrics.ObserveBackend(backendName, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("search %s: %w", q.IndexPattern, parseError(res))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		metrics.ObserveBackend(backendName, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("parse response body: %w", domain.NewBackendError(res.StatusCode, err.Error()))
	}
	metrics.ObserveBackend(backendName, "ok", time.Since(start).Seconds())

	f.logger.Debug("Fetched logs from Elasticsearch",
		zap.String("index_pattern", q.IndexPattern),
		zap.Int("documents", len(sr.Hits.Hits)),
		zap.Int64("hits", sr.Hits.Total.Value),
		zap.Int64("took_ms", sr.Took),
	)

	docs := sr.Hits.Hits
	if docs == nil {
		docs = []document.Document{}
	}
	return &domlogs.Result{
		Documents: docs,
		Buckets:   sr.Aggregations.LogCount.Buckets,
		Hits:      sr.Hits.Total.Value,
		Took:      sr.Took,
	}, nil
}

// Ping checks the cluster via the info endpoint.
func (f *Fetcher) Ping(ctx context.Context) error {
	res, err := f.client.Info(f.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch return statuscode: %d", res.StatusCode)
	}
	return nil
}

// searchBody builds the query: query_string over the window on the timestamp
// field, newest first, with a date histogram of the window.
// Views without a timestamp field get neither range, sort nor histogram.
func (f *Fetcher) searchBody(q domlogs.Query) map[string]any {
	must := []any{
		map[string]any{"query_string": map[string]any{"query": q.Query}},
	}
	body := map[string]any{"size": f.maxDocuments}

	if q.TimestampField != "" {
		startMs, endMs := q.TimeStart*1000, q.TimeEnd*1000
		must = append(must, map[string]any{
			"range": map[string]any{
				q.TimestampField: map[string]any{"gte": startMs, "lte": endMs, "format": "epoch_millis"},
			},
		})
		body["sort"] = []any{
			map[string]any{q.TimestampField: map[string]any{"order": "desc"}},
		}
		body["aggs"] = map[string]any{
			aggregationName: map[string]any{
				"date_histogram": map[string]any{
					"field":          q.TimestampField,
					"fixed_interval": histogramInterval(q.TimeStart, q.TimeEnd),
					"min_doc_count":  0,
					"extended_bounds": map[string]any{
						"min": startMs,
						"max": endMs,
					},
				},
			},
		}
	}

	body["query"] = map[string]any{"bool": map[string]any{"must": must}}
	return body
}

// histogramInterval splits the window into about histogramBuckets buckets.
func histogramInterval(start, end int64) string {
	interval := (end - start) / histogramBuckets
	if interval < 1 {
		interval = 1
	}
	return fmt.Sprintf("%ds", interval)
}

// parseError extracts the reason of an Elasticsearch error response.
func parseError(res *esapi.Response) error {
	data, _ := io.ReadAll(res.Body)
	var parsed struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	msg := string(data)
	if json.Unmarshal(data, &parsed) == nil && parsed.Error.Reason != "" {
		msg = parsed.Error.Type + ": " + parsed.Error.Reason
	}
	return domain.NewBackendError(res.StatusCode, msg)
}
