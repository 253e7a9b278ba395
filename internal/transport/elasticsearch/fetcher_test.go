package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/logview/internal/domain"
	domlogs "github.com/kailas-cloud/logview/internal/domain/logs"
)

var testQuery = domlogs.Query{
	DataView:       "app",
	IndexPattern:   "app-*",
	TimestampField: "@timestamp",
	Query:          "level: error",
	TimeStart:      1700000000,
	TimeEnd:        1700000900,
}

const searchOK = `{
	"took": 12,
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"hits": [
			{"_index":"app-1","_id":"b","_source":{"@timestamp":"2023-11-14T22:28:00Z","msg":"second"}},
			{"_index":"app-1","_id":"a","_source":{"@timestamp":"2023-11-14T22:27:00Z","msg":"first"}}
		]
	},
	"aggregations": {
		"logcount": {"buckets": [
			{"key_as_string":"2023-11-14T22:13:20.000Z","key":1700000000000,"doc_count":0},
			{"key_as_string":"2023-11-14T22:13:50.000Z","key":1700000030000,"doc_count":2}
		]}
	}
}`

func TestNewFetcher_RequiresAddresses(t *testing.T) {
	_, err := NewFetcher(&Config{})
	require.Error(t, err)
}

func TestFetch_Success(t *testing.T) {
	f, rt := newMockFetcher(t, 500)

	var captured map[string]any
	rt.On("RoundTrip", mock.Anything).
		Return(withInfo(func(req *http.Request) *http.Response {
			assert.Equal(t, "/app-*/_search", req.URL.Path)
			assert.Equal(t, "true", req.URL.Query().Get("track_total_hits"))
			data, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(data, &captured))
			return newMockHTTPResponse(http.StatusOK, searchOK)
		}), nil)

	result, err := f.Fetch(context.Background(), testQuery)
	require.NoError(t, err)

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "b", result.Documents[0].ID())
	assert.Equal(t, "app-1", result.Documents[0].Index())
	assert.Equal(t, int64(2), result.Hits)
	assert.Equal(t, int64(12), result.Took)
	require.Len(t, result.Buckets, 2)
	assert.Equal(t, domlogs.Bucket{Key: 1700000030000, DocCount: 2}, result.Buckets[1])

	assert.EqualValues(t, 500, captured["size"])
	assert.Contains(t, captured, "sort")
	aggs := captured["aggs"].(map[string]any)
	hist := aggs["logcount"].(map[string]any)["date_histogram"].(map[string]any)
	assert.Equal(t, "@timestamp", hist["field"])
	assert.Equal(t, "30s", hist["fixed_interval"])

	must := captured["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	require.Len(t, must, 2)
	qs := must[0].(map[string]any)["query_string"].(map[string]any)
	assert.Equal(t, "level: error", qs["query"])
	rng := must[1].(map[string]any)["range"].(map[string]any)["@timestamp"].(map[string]any)
	assert.EqualValues(t, 1700000000000, rng["gte"])
	assert.EqualValues(t, 1700000900000, rng["lte"])

	rt.AssertExpectations(t)
}

func TestFetch_NoTimestampField(t *testing.T) {
	f, rt := newMockFetcher(t, 0)

	var captured map[string]any
	rt.On("RoundTrip", mock.Anything).
		Return(withInfo(func(req *http.Request) *http.Response {
			data, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(data, &captured)
			return newMockHTTPResponse(http.StatusOK, `{"took":1,"hits":{"total":{"value":0},"hits":[]}}`)
		}), nil)

	q := testQuery
	q.TimestampField = ""
	result, err := f.Fetch(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, result.IsEmpty())
	assert.NotNil(t, result.Documents)
	assert.EqualValues(t, defaultMaxDocuments, captured["size"])
	assert.NotContains(t, captured, "sort")
	assert.NotContains(t, captured, "aggs")
}

func TestFetch_ErrorResponse(t *testing.T) {
	f, rt := newMockFetcher(t, 0)

	rt.On("RoundTrip", mock.Anything).
		Return(withInfo(func(*http.Request) *http.Response {
			return newMockHTTPResponse(http.StatusBadRequest,
				`{"error":{"type":"search_phase_execution_exception","reason":"all shards failed"},"status":400}`)
		}), nil)

	_, err := f.Fetch(context.Background(), testQuery)
	require.ErrorIs(t, err, domain.ErrBackendUnavailable)

	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusBadRequest, be.StatusCode)
	assert.Equal(t, "search_phase_execution_exception: all shards failed", be.Message)
}

func TestFetch_TransportError(t *testing.T) {
	f, rt := newMockFetcher(t, 0)

	rt.On("RoundTrip", mock.Anything).
		Return(nil, errors.New("simulated network error"))

	_, err := f.Fetch(context.Background(), testQuery)
	require.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestFetch_InvalidBody(t *testing.T) {
	f, rt := newMockFetcher(t, 0)

	rt.On("RoundTrip", mock.Anything).
		Return(withInfo(func(*http.Request) *http.Response {
			return newMockHTTPResponse(http.StatusOK, `{"hits":`)
		}), nil)

	_, err := f.Fetch(context.Background(), testQuery)
	require.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestPing(t *testing.T) {
	f, rt := newMockFetcher(t, 0)

	rt.On("RoundTrip", mock.Anything).
		Return(withInfo(nil), nil)

	require.NoError(t, f.Ping(context.Background()))
}

func TestPing_ErrorStatus(t *testing.T) {
	f, rt := newMockFetcher(t, 0)

	rt.On("RoundTrip", mock.Anything).
		Return(func(*http.Request) *http.Response {
			return newMockHTTPResponse(http.StatusServiceUnavailable, `{}`)
		}, nil)

	require.Error(t, f.Ping(context.Background()))
}

func TestHistogramInterval(t *testing.T) {
	assert.Equal(t, "30s", histogramInterval(0, 900))
	assert.Equal(t, "1s", histogramInterval(0, 10))
	assert.Equal(t, "1s", histogramInterval(5, 5))
}
