package kobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/document"
	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
	"github.com/kailas-cloud/logview/internal/metrics"
)

const (
	backendName = "kobs"
	logsPath    = "/api/plugins/elasticsearch/logs"

	headerCluster = "x-kobs-cluster"
	headerPlugin  = "x-kobs-plugin"

	maxErrorBody = 64 << 10
)

// Client fetches log batches from the kobs Elasticsearch plugin endpoint.
type Client struct {
	baseURL string
	cluster string
	plugin  string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the kobs endpoint settings.
type Config struct {
	URL     string
	Cluster string
	Plugin  string
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a kobs logs client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("kobs url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("parse kobs url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		cluster: cfg.Cluster,
		plugin:  cfg.Plugin,
		http:    hc,
		logger:  logger,
	}, nil
}

// logsResponse is the payload of the logs endpoint.
type logsResponse struct {
	Documents []document.Document `json:"documents"`
	Buckets   []domlogs.Bucket    `json:"buckets"`
	Hits      int64               `json:"hits"`
	Took      int64               `json:"took"`
}

// Fetch loads the document batch for q.
func (c *Client) Fetch(ctx context.Context, q domlogs.Query) (*domlogs.Result, error) {
	req, err := c.newRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveBackend(backendName, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("kobs request: %w", domain.NewBackendError(0, err.Error()))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ObserveBackend(backendName, "error", time.Since(start).Seconds())
		return nil, parseAPIError(resp)
	}

	var body logsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.ObserveBackend(backendName, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("decode kobs response: %w", domain.NewBackendError(resp.StatusCode, err.Error()))
	}
	metrics.ObserveBackend(backendName, "ok", time.Since(start).Seconds())

	c.logger.Debug("Fetched logs from kobs",
		zap.String("index_pattern", q.IndexPattern),
		zap.Int("documents", len(body.Documents)),
		zap.Int64("hits", body.Hits),
		zap.Int64("took_ms", body.Took),
	)

	docs := body.Documents
	if docs == nil {
		docs = []document.Document{}
	}
	return &domlogs.Result{Documents: docs, Buckets: body.Buckets, Hits: body.Hits, Took: body.Took}, nil
}

// Ping checks that the kobs API answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kobs health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("kobs health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, q domlogs.Query) (*http.Request, error) {
	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("indexPattern", q.IndexPattern)
	params.Set("timestampField", q.TimestampField)
	params.Set("timeStart", strconv.FormatInt(q.TimeStart, 10))
	params.Set("timeEnd", strconv.FormatInt(q.TimeEnd, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+logsPath+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cluster != "" {
		req.Header.Set(headerCluster, c.cluster)
	}
	if c.plugin != "" {
		req.Header.Set(headerPlugin, c.plugin)
	}
	return req, nil
}

// parseAPIError turns a non-2xx response into a BackendError carrying the
// "error" field of the body, or the raw body when it is not JSON.
func parseAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := extractError(data)
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	return fmt.Errorf("kobs logs: %w", domain.NewBackendError(resp.StatusCode, msg))
}

func extractError(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		return parsed.Error
	}
	return ""
}
