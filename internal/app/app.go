// Package app wires the log viewer services from configuration. It is the
// composition root shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/logview/internal/config"
	"github.com/kailas-cloud/logview/internal/db"
	dbRedis "github.com/kailas-cloud/logview/internal/db/redis"
	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/dataview"
	"github.com/kailas-cloud/logview/internal/domain/timestamp"
	"github.com/kailas-cloud/logview/internal/metrics"
	"github.com/kailas-cloud/logview/internal/repository/history"
	"github.com/kailas-cloud/logview/internal/repository/logcache"
	"github.com/kailas-cloud/logview/internal/transport/elasticsearch"
	"github.com/kailas-cloud/logview/internal/transport/kobs"
	"github.com/kailas-cloud/logview/internal/usecase/export"
	healthuc "github.com/kailas-cloud/logview/internal/usecase/health"
	logsuc "github.com/kailas-cloud/logview/internal/usecase/logs"
	"github.com/kailas-cloud/logview/internal/usecase/table"
)

// backend fetches batches and answers health pings.
type backend interface {
	logsuc.Fetcher
	healthuc.Pinger
}

// App holds the wired services.
type App struct {
	Logs     *logsuc.Service
	Exporter *export.Exporter
	Health   *healthuc.Service
	Renderer *table.Renderer

	store db.Store
}

// New builds the services described by cfg. The database is optional: without
// it history lives in memory and batches are not cached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	views, err := dataViews(cfg.DataViews)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Export.Location()
	if err != nil {
		return nil, err
	}
	formatter := timestamp.New(loc)

	be, err := newBackend(cfg.Backend, logger)
	if err != nil {
		return nil, err
	}

	a := &App{}
	var fetcher logsuc.Fetcher
	var hist logsuc.HistoryStore = history.NewMemory(cfg.History.Capacity)
	var dbPinger healthuc.Pinger

	if cfg.Database.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
		)

		a.store = store
		dbPinger = store
		hist = history.New(store, cfg.History.Capacity)
		fetcher = logcache.New(be, store, cfg.Cache.TTL(), metrics.CacheTotal, logger)
	} else {
		fetcher = logcache.New(be, logcache.NewMemory(), cfg.Cache.TTL(), metrics.CacheTotal, logger)
	}

	a.Renderer = table.NewRenderer(formatter)
	a.Logs = logsuc.New(views, fetcher, hist, a.Renderer, logger).WithHistoryKey(cfg.History.Key)
	a.Exporter = export.New(export.NewDirDownloader(cfg.Export.Dir), exportPlugin(cfg), formatter, metrics.ExportsTotal)
	a.Health = healthuc.New(be, dbPinger)
	return a, nil
}

// Close releases the database connection, if any.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func newBackend(cfg config.BackendConfig, logger *zap.Logger) (backend, error) {
	switch cfg.Type {
	case config.BackendKobs:
		c, err := kobs.NewClient(&kobs.Config{
			URL:     cfg.Kobs.URL,
			Cluster: cfg.Kobs.Cluster,
			Plugin:  cfg.Kobs.Plugin,
			Timeout: cfg.Timeout(),
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create kobs client: %w", err)
		}
		return c, nil
	case config.BackendElasticsearch:
		f, err := elasticsearch.NewFetcher(&elasticsearch.Config{
			Addresses:    cfg.Elasticsearch.Addresses,
			Username:     cfg.Elasticsearch.Username,
			Password:     cfg.Elasticsearch.Password,
			MaxDocuments: cfg.Elasticsearch.MaxDocuments,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create elasticsearch fetcher: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}

func dataViews(cfgs []config.DataViewConfig) (*dataview.Set, error) {
	views := make([]dataview.DataView, 0, len(cfgs))
	for _, c := range cfgs {
		v, err := dataview.New(c.Name, c.IndexPattern, c.TimestampField)
		if err != nil {
			return nil, fmt.Errorf("data view %q: %w", c.Name, err)
		}
		views = append(views, v)
	}
	set, err := dataview.NewSet(views...)
	if err != nil {
		return nil, fmt.Errorf("data views: %w", err)
	}
	return set, nil
}

// exportPlugin names the plugin in export file names.
func exportPlugin(cfg config.Config) string {
	if cfg.Backend.Type == config.BackendKobs && cfg.Backend.Kobs.Plugin != "" {
		return cfg.Backend.Kobs.Plugin
	}
	return domain.Plugin
}
