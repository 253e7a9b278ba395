package table

import (
	"fmt"

	"github.com/kailas-cloud/logview/internal/domain/dataview"
	"github.com/kailas-cloud/logview/internal/domain/document"
	"github.com/kailas-cloud/logview/internal/domain/filter"
	"github.com/kailas-cloud/logview/internal/domain/selection"
	"github.com/kailas-cloud/logview/internal/domain/timestamp"
)

// Missing is rendered in the timestamp column when a document lacks the field.
const Missing = "-"

// Column titles.
const (
	TimeColumn     = "Time"
	DocumentColumn = "Document"
)

// Row is one document projected onto the table columns.
type Row struct {
	Key       string              `json:"key"`
	ID        string              `json:"id"`
	Index     string              `json:"index"`
	Timestamp string              `json:"timestamp,omitempty"`
	Preview   []document.KeyValue `json:"preview,omitempty"`
	Cells     []string            `json:"cells,omitempty"`
}

// Filters holds the query clauses offered for one flattened field.
type Filters struct {
	Equal    string `json:"equal"`
	NotEqual string `json:"notEqual"`
	Exists   string `json:"exists"`
}

// DetailField is a flattened field of an expanded row.
type DetailField struct {
	document.KeyValue
	Filters Filters `json:"filters"`
}

// Detail is the expanded view of a row.
type Detail struct {
	Fields []DetailField `json:"fields"`
	Raw    string        `json:"raw"`
}

// Renderer projects documents onto table rows.
type Renderer struct {
	formatter timestamp.Formatter
}

// NewRenderer creates a Renderer formatting timestamps with f.
func NewRenderer(f timestamp.Formatter) *Renderer {
	return &Renderer{formatter: f}
}

// Columns returns the column titles: Time (when the view has a timestamp field),
// then the selected fields, or a single Document preview column.
func (r *Renderer) Columns(sel selection.Selection, dv dataview.DataView) []string {
	cols := make([]string, 0, sel.Len()+1)
	if dv.HasTimestamp() {
		cols = append(cols, TimeColumn)
	}
	if sel.IsEmpty() {
		return append(cols, DocumentColumn)
	}
	return append(cols, sel.Fields()...)
}

// Rows renders one row per document.
func (r *Renderer) Rows(docs []document.Document, sel selection.Selection, dv dataview.DataView) []Row {
	fields := sel.Fields()
	rows := make([]Row, len(docs))
	for i, doc := range docs {
		rows[i] = r.row(doc, fields, dv)
	}
	return rows
}

func (r *Renderer) row(doc document.Document, fields []string, dv dataview.DataView) Row {
	row := Row{Key: RowKey(doc), ID: doc.ID(), Index: doc.Index()}

	if dv.HasTimestamp() {
		row.Timestamp = Missing
		if ts, ok := doc.Property(dv.TimestampField()); ok {
			row.Timestamp = r.formatter.Format(ts)
		}
	}

	if len(fields) == 0 {
		row.Preview = document.KeyValues(doc.Source(), "")
		return row
	}

	row.Cells = make([]string, len(fields))
	for i, f := range fields {
		if v, ok := doc.Property(f); ok {
			row.Cells[i] = v.Text()
		}
	}
	return row
}

// Detail renders the expanded view: flattened fields with their filter
// clauses, and the whole document as pretty JSON.
func (r *Renderer) Detail(doc document.Document) (Detail, error) {
	kvs := document.KeyValues(doc.Source(), "")
	fields := make([]DetailField, len(kvs))
	for i, kv := range kvs {
		text := kv.Value.Text()
		fields[i] = DetailField{
			KeyValue: kv,
			Filters: Filters{
				Equal:    filter.Equal(kv.Key, text),
				NotEqual: filter.NotEqual(kv.Key, text),
				Exists:   filter.Exists(kv.Key),
			},
		}
	}

	raw, err := doc.Raw().Indent()
	if err != nil {
		return Detail{}, fmt.Errorf("render document %s: %w", doc.ID(), err)
	}
	return Detail{Fields: fields, Raw: string(raw)}, nil
}

// RowKey identifies a row: ids are only unique within one index.
func RowKey(doc document.Document) string {
	return doc.ID() + "__" + doc.Index()
}
