package elasticsearch

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRoundTripper struct {
	mock.Mock
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	args := m.Called(req)

	resp := args.Get(0)
	if resp == nil {
		return nil, args.Error(1)
	}

	switch v := resp.(type) {
	case *http.Response:
		return v, args.Error(1)
	case func(*http.Request) *http.Response:
		return v(req), args.Error(1)
	default:
		panic(fmt.Sprintf("unexpected RoundTrip return type: %T", v))
	}
}

func newMockHTTPResponse(status int, body string) *http.Response {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Elastic-Product", "Elasticsearch")

	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

const infoBody = `{"name":"mock-node","cluster_name":"mock-cluster","version":{"number":"7.17.10"},"tagline":"You Know, for Search"}`

// withInfo answers the client's product check (GET /) and hands every other request to fn.
func withInfo(fn func(*http.Request) *http.Response) func(*http.Request) *http.Response {
	return func(req *http.Request) *http.Response {
		if req.Method == http.MethodGet && req.URL.Path == "/" {
			return newMockHTTPResponse(http.StatusOK, infoBody)
		}
		return fn(req)
	}
}

// newMockFetcher swaps defaultTransport for a mockRoundTripper and builds a Fetcher on it.
func newMockFetcher(t *testing.T, maxDocs int) (*Fetcher, *mockRoundTripper) {
	t.Helper()

	orig := defaultTransport
	rt := new(mockRoundTripper)
	defaultTransport = rt
	t.Cleanup(func() { defaultTransport = orig })

	f, err := NewFetcher(&Config{Addresses: []string{"http://mock-es:9200"}, MaxDocuments: maxDocs})
	require.NoError(t, err)
	return f, rt
}
