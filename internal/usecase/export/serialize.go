package export

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/logview/internal/domain/dataview"
	"github.com/kailas-cloud/logview/internal/domain/document"
	"github.com/kailas-cloud/logview/internal/domain/timestamp"
	"github.com/kailas-cloud/logview/internal/domain/value"
)

// Content types of exported files.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)

// FileName returns the fixed batch export file name for a plugin.
func FileName(plugin, ext string) string {
	return fmt.Sprintf("kobs-%s-export.%s", plugin, ext)
}

// DocumentFileName returns the single document file name {id}__{index}.json.
func DocumentFileName(doc document.Document) string {
	return fmt.Sprintf("%s__%s.json", doc.ID(), doc.Index())
}

// JSON encodes whole documents as a compact array, regardless of field selection.
func JSON(docs []document.Document) ([]byte, error) {
	data, err := value.Array(document.Values(docs)...).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	return data, nil
}

// CSV renders one semicolon separated, CRLF terminated row per document:
// the formatted timestamp when the data view declares one, then ";"+value for
// every field. Absent values are empty. No header row is written.
func CSV(docs []document.Document, fields []string, dv dataview.DataView, f timestamp.Formatter) string {
	var b strings.Builder
	for _, doc := range docs {
		if dv.HasTimestamp() {
			if ts, ok := doc.Property(dv.TimestampField()); ok {
				b.WriteString(f.Format(ts))
			}
		}
		for _, field := range fields {
			b.WriteByte(';')
			if v, ok := doc.Property(field); ok {
				b.WriteString(v.Text())
			}
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

// Document pretty-prints a single document and returns its file name.
func Document(doc document.Document) (string, []byte, error) {
	data, err := doc.Raw().Indent()
	if err != nil {
		return "", nil, fmt.Errorf("encode document %s: %w", doc.ID(), err)
	}
	return DocumentFileName(doc), data, nil
}
