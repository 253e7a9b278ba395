package logs

import (
	"fmt"

	"github.com/kailas-cloud/logview/internal/domain/document"
)

// Query identifies one document fetch. Pagination and field selection are not
// part of it: they operate on the already loaded batch.
type Query struct {
	DataView       string `json:"dataView"`
	IndexPattern   string `json:"indexPattern"`
	TimestampField string `json:"timestampField,omitempty"`
	Query          string `json:"query"`
	TimeStart      int64  `json:"timeStart"`
	TimeEnd        int64  `json:"timeEnd"`
}

// Key returns the fetch key (dataView, query, timeStart, timeEnd).
func (q Query) Key() string {
	return fmt.Sprintf("%s\x00%s\x00%d\x00%d", q.DataView, q.Query, q.TimeStart, q.TimeEnd)
}

// Bucket is one time-histogram bucket.
type Bucket struct {
	Key      int64 `json:"key"` // epoch milliseconds
	DocCount int64 `json:"doc_count"`
}

// Result is a document batch as returned by the backend.
type Result struct {
	Documents []document.Document `json:"documents"`
	Buckets   []Bucket            `json:"buckets"`
	Hits      int64               `json:"hits"`
	Took      int64               `json:"took"`
}

// IsEmpty reports whether the query matched no documents.
func (r *Result) IsEmpty() bool { return len(r.Documents) == 0 }

// Page returns the documents of the 1-based page. Out of range pages are empty.
func (r *Result) Page(page, perPage int) []document.Document {
	if page < 1 || perPage < 1 {
		return []document.Document{}
	}
	start := (page - 1) * perPage
	if start >= len(r.Documents) {
		return []document.Document{}
	}
	end := start + perPage
	if end > len(r.Documents) {
		end = len(r.Documents)
	}
	return r.Documents[start:end]
}
