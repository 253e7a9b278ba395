package logcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/logview/internal/db"
	"github.com/kailas-cloud/logview/internal/domain"
	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
)

var cacheKeyPrefix = domain.KeyPrefix + "logs:"

// fetcher is the decorated backend.
type fetcher interface {
	Fetch(ctx context.Context, q domlogs.Query) (*domlogs.Result, error)
}

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedFetcher caches document batches by fetch key, so paging and field
// selection over the same batch never reach the backend.
type CachedFetcher struct {
	inner      fetcher
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner fetcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedFetcher {
	return &CachedFetcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Fetch returns the cached batch for q or loads it from the inner fetcher.
// Failed fetches are not cached.
func (c *CachedFetcher) Fetch(ctx context.Context, q domlogs.Query) (*domlogs.Result, error) {
	key := c.cacheKey(q)

	if result, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return result, nil
	}

	c.incCache("miss")

	result, err := c.inner.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	c.putToCache(ctx, key, result)
	return result, nil
}

func (c *CachedFetcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedFetcher) cacheKey(q domlogs.Query) string {
	h := sha256.Sum256([]byte(q.IndexPattern + "\x00" + q.TimestampField + "\x00" + q.Key()))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedFetcher) getFromCache(ctx context.Context, key string) (*domlogs.Result, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached logs", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var result domlogs.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Failed to parse cached logs", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (c *CachedFetcher) putToCache(ctx context.Context, key string, result *domlogs.Result) {
	if result == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to encode logs for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache logs", zap.String("key", key), zap.Error(err))
	}
}
