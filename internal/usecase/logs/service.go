package logs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/dataview"
	"github.com/kailas-cloud/logview/internal/domain/document"
	"github.com/kailas-cloud/logview/internal/domain/filter"
	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
	"github.com/kailas-cloud/logview/internal/domain/options"
	"github.com/kailas-cloud/logview/internal/usecase/export"
	"github.com/kailas-cloud/logview/internal/usecase/table"
)

// View is one rendered page of the log viewer.
type View struct {
	Options   options.Options  `json:"options"`
	DataView  DataViewInfo     `json:"dataView"`
	Fields    []string         `json:"fields"`
	Columns   []string         `json:"columns"`
	Rows      []table.Row      `json:"rows"`
	Buckets   []domlogs.Bucket `json:"buckets"`
	Hits      int64            `json:"hits"`
	Took      int64            `json:"took"`
	Documents int              `json:"documents"`
	Empty     bool             `json:"empty"`
}

// DataViewInfo describes a data view to clients.
type DataViewInfo struct {
	Name           string `json:"name"`
	IndexPattern   string `json:"indexPattern"`
	TimestampField string `json:"timestampField,omitempty"`
}

// Service is the query and time range controller of the log viewer.
// Fetches are keyed by (dataView, query, timeStart, timeEnd); paging and
// field selection work on the loaded batch.
type Service struct {
	views      *dataview.Set
	fetcher    Fetcher
	history    HistoryStore
	historyKey string
	renderer   *table.Renderer
	inflight   singleflight.Group
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a log viewer service.
func New(views *dataview.Set, fetcher Fetcher, history HistoryStore, renderer *table.Renderer, logger *zap.Logger) *Service {
	return &Service{
		views:      views,
		fetcher:    fetcher,
		history:    history,
		historyKey: domain.HistoryKey,
		renderer:   renderer,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock overrides the clock used to resolve relative time ranges.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithHistoryKey overrides the identifier the query history is stored under.
func (s *Service) WithHistoryKey(key string) *Service {
	if key != "" {
		s.historyKey = key
	}
	return s
}

// DataViews returns the configured data views.
func (s *Service) DataViews() []DataViewInfo {
	views := s.views.All()
	out := make([]DataViewInfo, len(views))
	for i, v := range views {
		out[i] = dataViewInfo(v)
	}
	return out
}

// Search loads the batch for opts and renders the requested page.
// The returned options carry the resolved time window, so requesting another
// page with them reuses the same batch.
func (s *Service) Search(ctx context.Context, opts options.Options) (*View, error) {
	opts, dv, result, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.remember(ctx, opts.Query)

	sel := opts.Selection()
	return &View{
		Options:   opts,
		DataView:  dataViewInfo(dv),
		Fields:    document.Fields(result.Documents),
		Columns:   s.renderer.Columns(sel, dv),
		Rows:      s.renderer.Rows(result.Page(opts.Page, opts.PerPage), sel, dv),
		Buckets:   result.Buckets,
		Hits:      result.Hits,
		Took:      result.Took,
		Documents: len(result.Documents),
		Empty:     result.IsEmpty(),
	}, nil
}

// Fields returns the fields discovered in the batch for opts.
func (s *Service) Fields(ctx context.Context, opts options.Options) ([]string, error) {
	_, _, result, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return document.Fields(result.Documents), nil
}

// Batch returns the whole loaded batch for export.
func (s *Service) Batch(ctx context.Context, opts options.Options) (export.Batch, error) {
	opts, dv, result, err := s.load(ctx, opts)
	if err != nil {
		return export.Batch{}, err
	}
	return export.Batch{Documents: result.Documents, Selection: opts.Selection(), DataView: dv}, nil
}

// Document finds a document of the loaded batch by id or row key.
func (s *Service) Document(ctx context.Context, opts options.Options, id string) (document.Document, error) {
	_, _, result, err := s.load(ctx, opts)
	if err != nil {
		return document.Document{}, err
	}
	for _, doc := range result.Documents {
		if doc.ID() == id || table.RowKey(doc) == id {
			return doc, nil
		}
	}
	return document.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrDocumentNotFound)
}

// Detail renders the expanded view of one document.
func (s *Service) Detail(ctx context.Context, opts options.Options, id string) (table.Detail, error) {
	doc, err := s.Document(ctx, opts, id)
	if err != nil {
		return table.Detail{}, err
	}
	return s.renderer.Detail(doc)
}

// History returns the submitted queries, oldest first.
func (s *Service) History(ctx context.Context) ([]string, error) {
	items, err := s.history.List(ctx, s.historyKey)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return items, nil
}

// ToggleField selects or deselects a field.
func (s *Service) ToggleField(opts options.Options, field string) options.Options {
	return opts.WithSelection(opts.Selection().Toggle(field))
}

// SwapFields swaps two selected columns.
func (s *Service) SwapFields(opts options.Options, from, to int) (options.Options, error) {
	sel, err := opts.Selection().Swap(from, to)
	if err != nil {
		return opts, fmt.Errorf("%w: %w", domain.ErrInvalidOptions, err)
	}
	return opts.WithSelection(sel), nil
}

// AddFilter appends a filter clause to the query. The new query starts on the
// first page of a fresh time window.
func (s *Service) AddFilter(opts options.Options, op filter.Operator, field, value string) (options.Options, error) {
	clause, err := filter.Clause(op, field, value)
	if err != nil {
		return opts, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	opts = opts.Normalize()
	opts.Query = filter.Apply(opts.Query, clause)
	opts.Page = options.DefaultPage
	if !isCustom(opts) {
		opts.TimeStart, opts.TimeEnd = 0, 0
	}
	return opts, nil
}

func (s *Service) load(
	ctx context.Context, opts options.Options,
) (options.Options, dataview.DataView, *domlogs.Result, error) {
	opts, dv, q, err := s.resolve(opts)
	if err != nil {
		return opts, dataview.DataView{}, nil, err
	}
	result, err := s.fetch(ctx, q)
	if err != nil {
		return opts, dataview.DataView{}, nil, err
	}
	return opts, dv, result, nil
}

// resolve normalizes opts and pins the time window.
func (s *Service) resolve(opts options.Options) (options.Options, dataview.DataView, domlogs.Query, error) {
	opts = opts.Normalize()

	dv, err := s.views.Resolve(opts.DataView)
	if err != nil {
		return opts, dataview.DataView{}, domlogs.Query{}, fmt.Errorf("resolve data view: %w", err)
	}
	opts.DataView = dv.Name()

	tr, err := opts.TimeRange()
	if err != nil {
		return opts, dataview.DataView{}, domlogs.Query{}, err
	}
	// A window pinned for a different preset is stale.
	if !tr.Matches(opts.TimeStart, opts.TimeEnd) {
		opts.TimeStart, opts.TimeEnd = tr.Resolve(s.now())
	}

	q := domlogs.Query{
		DataView:       dv.Name(),
		IndexPattern:   dv.IndexPattern(),
		TimestampField: dv.TimestampField(),
		Query:          opts.Query,
		TimeStart:      opts.TimeStart,
		TimeEnd:        opts.TimeEnd,
	}
	return opts, dv, q, nil
}

// fetch deduplicates concurrent loads of the same query. The shared load
// ignores caller cancellation; each caller waits on its own context.
func (s *Service) fetch(ctx context.Context, q domlogs.Query) (*domlogs.Result, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(q.Key(), func() (any, error) {
		return s.fetcher.Fetch(detached, q)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch documents: %w", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("fetch documents: %w", res.Err)
	}
	if res.Shared {
		s.logger.Debug("Fetch shared with in-flight request", zap.String("data_view", q.DataView))
	}
	result, _ := res.Val.(*domlogs.Result)
	if result == nil {
		result = &domlogs.Result{}
	}
	return result, nil
}

// remember appends query to the history unless it repeats the latest entry
// (paging through a batch re-submits the same query).
func (s *Service) remember(ctx context.Context, query string) {
	last, ok, err := s.history.Latest(ctx, s.historyKey)
	if err != nil {
		s.logger.Warn("Failed to read query history", zap.Error(err))
		return
	}
	if ok && last == query {
		return
	}
	if err := s.history.Append(ctx, s.historyKey, query); err != nil {
		s.logger.Warn("Failed to append query history", zap.String("query", query), zap.Error(err))
	}
}

func dataViewInfo(v dataview.DataView) DataViewInfo {
	return DataViewInfo{Name: v.Name(), IndexPattern: v.IndexPattern(), TimestampField: v.TimestampField()}
}

func isCustom(opts options.Options) bool {
	tr, err := opts.TimeRange()
	return err == nil && tr.IsCustom()
}
