package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/dataview"
	"github.com/kailas-cloud/logview/internal/domain/document"
	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
	"github.com/kailas-cloud/logview/internal/domain/timerange"
	"github.com/kailas-cloud/logview/internal/domain/timestamp"
	"github.com/kailas-cloud/logview/internal/domain/value"
	"github.com/kailas-cloud/logview/internal/repository/history"
	"github.com/kailas-cloud/logview/internal/usecase/export"
	logsuc "github.com/kailas-cloud/logview/internal/usecase/logs"
	"github.com/kailas-cloud/logview/internal/usecase/table"
)

var fixedNow = time.Unix(1_700_000_000, 0)

type fakeFetcher struct {
	mu      sync.Mutex
	result  *domlogs.Result
	err     error
	queries []domlogs.Query
}

func (f *fakeFetcher) Fetch(_ context.Context, q domlogs.Query) (*domlogs.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.result, f.err
}

func (f *fakeFetcher) last(t *testing.T) domlogs.Query {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.queries)
	return f.queries[len(f.queries)-1]
}

func makeResult(t *testing.T) *domlogs.Result {
	t.Helper()
	raws := []string{
		`{"_id":"1","_index":"app-1","_source":{"@timestamp":"2024-01-01T00:00:00Z","msg":"hello","level":"info"}}`,
		`{"_id":"2","_index":"app-1","_source":{"@timestamp":"2024-01-01T00:00:01Z","msg":"world","code":7}}`,
	}
	docs := make([]document.Document, len(raws))
	for i, raw := range raws {
		d, err := document.New(value.MustParse(raw))
		require.NoError(t, err)
		docs[i] = d
	}
	return &domlogs.Result{Documents: docs, Hits: 2, Took: 4}
}

type testEnv struct {
	fetcher *fakeFetcher
	history *history.Memory
	dir     string
	closed  bool
}

func newTestEnv(t *testing.T) *testEnv {
	return &testEnv{
		fetcher: &fakeFetcher{result: makeResult(t)},
		history: history.NewMemory(0),
		dir:     t.TempDir(),
	}
}

func (e *testEnv) factory(t *testing.T) Factory {
	return func(_ context.Context, _ *RootOptions) (*Services, error) {
		app, err := dataview.New("app", "app-*", "@timestamp")
		require.NoError(t, err)
		views, err := dataview.NewSet(app)
		require.NoError(t, err)

		formatter := timestamp.New(time.UTC)
		logs := logsuc.New(views, e.fetcher, e.history, table.NewRenderer(formatter), zap.NewNop()).
			WithClock(func() time.Time { return fixedNow })
		return &Services{
			Logs:     logs,
			Exporter: export.New(export.NewDirDownloader(e.dir), domain.Plugin, formatter, nil),
			Close:    func() { e.closed = true },
		}, nil
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(e.factory(t), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestQuery_Text(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "query", "-q", "msg: hello", "-f", "msg", "-f", "code")
	require.NoError(t, err)

	assert.Contains(t, out, "2 hits in 4 ms")
	assert.Contains(t, out, "2024-01-01 00:00:00")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
	assert.True(t, env.closed, "services should be closed")

	q := env.fetcher.last(t)
	assert.Equal(t, "msg: hello", q.Query)
	assert.Equal(t, fixedNow.Unix(), q.TimeEnd)
	assert.Equal(t, fixedNow.Unix()-15*60, q.TimeStart)
}

func TestQuery_JSONWithOptionsString(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "query", "-o", "json",
		"--options", "?query=level:info&fields[]=msg&time=custom&timeStart=100&timeEnd=200&perPage=1")
	require.NoError(t, err)

	var view logsuc.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "level:info", view.Options.Query)
	assert.Equal(t, []string{"msg"}, view.Options.Fields)
	assert.Len(t, view.Rows, 1)
	assert.Equal(t, 2, view.Documents)

	q := env.fetcher.last(t)
	assert.Equal(t, int64(100), q.TimeStart)
	assert.Equal(t, int64(200), q.TimeEnd)
}

func TestQuery_FlagsOverrideOptions(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "query", "--options", "query=a&time=last1Hour", "-q", "b", "--from", "10", "--to", "20")
	require.NoError(t, err)

	q := env.fetcher.last(t)
	assert.Equal(t, "b", q.Query)
	assert.Equal(t, int64(10), q.TimeStart)
	assert.Equal(t, int64(20), q.TimeEnd)
}

func TestQuery_Filters(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "query", "-q", "*", "--eq", "level=info", "--neq", "msg=world", "--exists", "code")
	require.NoError(t, err)

	assert.Equal(t, `* AND level: "info" AND NOT msg: "world" AND _exists_: code`, env.fetcher.last(t).Query)
}

func TestQuery_BadFilter(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "query", "--eq", "level")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field=value")
}

func TestQuery_Expand(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "query", "--expand", "2", "-o", "json")
	require.NoError(t, err)

	var got struct {
		Details map[string]table.Detail `json:"details"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Contains(t, got.Details, "2__app-1")
	assert.Len(t, got.Details["2__app-1"].Fields, 3)
	assert.NotContains(t, got.Details, "1__app-1")
}

func TestQuery_Empty(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.result = &domlogs.Result{}

	out, _, err := env.run(t, "query")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found")
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown data view", []string{"query", "--data-view", "nope"}, domain.ErrDataViewNotFound},
		{"bad time", []string{"query", "--time", "yesterday"}, domain.ErrInvalidOptions},
		{"custom without window", []string{"query", "--time", timerange.Custom}, domain.ErrInvalidOptions},
		{"bad options string", []string{"query", "--options", "page=x"}, domain.ErrInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, _, err := env.run(t, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuery_BackendError(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.err = domain.NewBackendError(502, "upstream down")

	_, _, err := env.run(t, "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestUnknownOutputFormat(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "fields", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestFields(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "fields")
	require.NoError(t, err)
	assert.Equal(t, "@timestamp\nmsg\nlevel\ncode\n", out)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"a", "a", "b"} {
		_, _, err := env.run(t, "query", "-q", q)
		require.NoError(t, err)
	}

	out, _, err := env.run(t, "history", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"queries":["a","b"]}`, out)
}

func TestExport_JSON(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, err := env.run(t, "export", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "exported 2 documents")

	data, err := os.ReadFile(filepath.Join(env.dir, "kobs-elasticsearch-export.json"))
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(data, &docs))
	assert.Len(t, docs, 2)
}

func TestExport_CSVToOutDir(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(t.TempDir(), "exports")

	_, _, err := env.run(t, "export", "--format", "csv", "-f", "msg", "-f", "code", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "kobs-elasticsearch-export.csv"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 00:00:00;hello;\r\n2024-01-01 00:00:01;world;7\r\n", string(data))
}

func TestExport_CSVWithoutFields(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "export", "--format", "csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
}

func TestExport_Document(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, err := env.run(t, "export", "--format", "document", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "1__app-1.json")

	data, err := os.ReadFile(filepath.Join(env.dir, "1__app-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"_id\": \"1\"")
}

func TestExport_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "export", "--format", "document")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id")

	_, _, err = env.run(t, "export", "--format", "document", "--id", "42")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, _, err = env.run(t, "export", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "logviewctl dev")
}
