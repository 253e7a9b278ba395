package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/logview/internal/domain/document"
	"github.com/kailas-cloud/logview/internal/domain/logs"
	"github.com/kailas-cloud/logview/internal/domain/options"
	"github.com/kailas-cloud/logview/internal/domain/value"
	logsuc "github.com/kailas-cloud/logview/internal/usecase/logs"
	"github.com/kailas-cloud/logview/internal/usecase/table"
)

func selectedView() *logsuc.View {
	return &logsuc.View{
		Options:  options.Options{Page: 1, PerPage: 100},
		DataView: logsuc.DataViewInfo{Name: "app", IndexPattern: "app-*", TimestampField: "@timestamp"},
		Columns:  []string{table.TimeColumn, "msg", "code"},
		Rows: []table.Row{
			{Key: "1__app-1", ID: "1", Index: "app-1", Timestamp: "2024-01-01 00:00:00", Cells: []string{"hello", ""}},
			{Key: "2__app-1", ID: "2", Index: "app-1", Timestamp: table.Missing, Cells: []string{"world", "7"}},
		},
		Buckets:   []logs.Bucket{{Key: 1, DocCount: 1}, {Key: 2, DocCount: 0}, {Key: 3, DocCount: 4}},
		Hits:      2,
		Took:      5,
		Documents: 2,
	}
}

func previewRow(n int) table.Row {
	kvs := make([]document.KeyValue, n)
	for i := range kvs {
		kvs[i] = document.KeyValue{Key: "field" + strings.Repeat("x", i%3), Value: value.String("some value text")}
	}
	return table.Row{Key: "1__app-1", ID: "1", Index: "app-1", Preview: kvs}
}

func TestTextRenderer_SelectedColumns(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf)

	require.NoError(t, r.View(selectedView(), nil))

	out := buf.String()
	assert.Contains(t, out, "2 hits in 5 ms, 2 documents loaded, page 1 of 1")
	assert.Contains(t, out, "Time")
	assert.Contains(t, out, "msg")
	assert.Contains(t, out, "2024-01-01 00:00:00")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, table.Missing), "missing timestamp rendered as %q: %q", table.Missing, last)
}

func TestTextRenderer_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextRenderer(&buf).View(&logsuc.View{Empty: true}, nil))
	assert.Equal(t, NoDocuments, strings.TrimSpace(buf.String()))
}

func TestTextRenderer_ExpandedRow(t *testing.T) {
	var buf bytes.Buffer
	details := map[string]table.Detail{
		"2__app-1": {Fields: []table.DetailField{
			{KeyValue: document.KeyValue{Key: "kubernetes.pod", Value: value.String("api-7f9")}},
		}},
	}

	require.NoError(t, NewTextRenderer(&buf).View(selectedView(), details))

	out := buf.String()
	assert.Contains(t, out, "kubernetes.pod: api-7f9")
	assert.Equal(t, 1, strings.Count(out, "kubernetes.pod"))
}

func TestTextRenderer_PreviewColumn(t *testing.T) {
	var buf bytes.Buffer
	v := &logsuc.View{
		Options:   options.Options{Page: 1, PerPage: 100},
		DataView:  logsuc.DataViewInfo{Name: "audit", IndexPattern: "audit-*"},
		Columns:   []string{table.DocumentColumn},
		Rows:      []table.Row{previewRow(2)},
		Documents: 1,
		Hits:      1,
	}

	require.NoError(t, NewTextRenderer(&buf).View(v, nil))

	out := buf.String()
	assert.Contains(t, out, "Document")
	assert.Contains(t, out, "field: some value text")
	assert.NotContains(t, out, "Time")
}

func TestPreview_ClampedToFourLines(t *testing.T) {
	got := Preview(previewRow(40), 30)

	lines := strings.Split(got, "\n")
	assert.Len(t, lines, PreviewLines)
	assert.True(t, strings.HasSuffix(lines[PreviewLines-1], "…"))
}

func TestPreview_Short(t *testing.T) {
	got := Preview(previewRow(1), 80)
	assert.Len(t, strings.Split(got, "\n"), 1)
	assert.Contains(t, got, "field: some value text")
}

func TestHistogram(t *testing.T) {
	assert.Equal(t, "", Histogram(nil))

	got := []rune(Histogram([]logs.Bucket{{DocCount: 0}, {DocCount: 1}, {DocCount: 8}}))
	require.Len(t, got, 3)
	assert.Equal(t, ' ', got[0])
	assert.Equal(t, '▂', got[1])
	assert.Equal(t, '█', got[2])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestTextRenderer_FieldsAndHistory(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf)

	require.NoError(t, r.Fields([]string{"@timestamp", "msg"}))
	assert.Equal(t, "@timestamp\nmsg\n", buf.String())

	buf.Reset()
	require.NoError(t, r.History([]string{"a", "b"}))
	assert.Contains(t, buf.String(), "1 a")
	assert.Contains(t, buf.String(), "2 b")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONRenderer(&buf)

	require.NoError(t, r.View(selectedView(), nil))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(2), got["hits"])
	assert.Len(t, got["rows"], 2)
	assert.NotContains(t, got, "details")
}

func TestJSONRenderer_Details(t *testing.T) {
	var buf bytes.Buffer
	details := map[string]table.Detail{"1__app-1": {Raw: "{}"}}

	require.NoError(t, NewJSONRenderer(&buf).View(selectedView(), details))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Contains(t, got, "details")
	assert.Contains(t, got, "rows")
}

func TestJSONRenderer_EmptyLists(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONRenderer(&buf)

	require.NoError(t, r.Fields(nil))
	require.NoError(t, r.History(nil))
	assert.Equal(t, "{\"fields\":[]}\n{\"queries\":[]}\n", buf.String())
}
