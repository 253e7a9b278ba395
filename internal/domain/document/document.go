package document

import (
	"fmt"

	"github.com/kailas-cloud/logview/internal/domain/value"
)

// Document is one retrieved record (immutable value object).
// It wraps the hit exactly as the backend returned it.
type Document struct {
	raw value.Value
}

// New creates a Document from a decoded hit. The hit must be a JSON object.
func New(raw value.Value) (Document, error) {
	if raw.Kind() != value.KindObject {
		return Document{}, fmt.Errorf("document must be an object, got %s", raw.Kind())
	}
	return Document{raw: raw}, nil
}

// ID returns the source-assigned identifier.
func (d Document) ID() string { return d.meta("_id") }

// Index returns the collection the document was read from.
func (d Document) Index() string { return d.meta("_index") }

// Raw returns the whole hit.
func (d Document) Raw() value.Value { return d.raw }

// Source returns the payload: the _source object when present, the hit itself otherwise.
func (d Document) Source() value.Value {
	if src, ok := d.raw.Get("_source"); ok {
		return src
	}
	return d.raw
}

// Property resolves a dotted path against the payload.
func (d Document) Property(path string) (value.Value, bool) {
	return GetProperty(d.Source(), path)
}

// MarshalJSON encodes the hit as received.
func (d Document) MarshalJSON() ([]byte, error) {
	return d.raw.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	raw, err := value.Parse(data)
	if err != nil {
		return err
	}
	doc, err := New(raw)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

func (d Document) meta(key string) string {
	v, ok := d.raw.Get(key)
	if !ok {
		return ""
	}
	return v.Text()
}

// ParseBatch decodes a JSON array of hits.
func ParseBatch(data []byte) ([]Document, error) {
	raw, err := value.Parse(data)
	if err != nil {
		return nil, err
	}
	if raw.Kind() != value.KindArray {
		return nil, fmt.Errorf("document batch must be an array, got %s", raw.Kind())
	}
	return FromValues(raw.Items())
}

// FromValues wraps decoded hits.
func FromValues(items []value.Value) ([]Document, error) {
	docs := make([]Document, 0, len(items))
	for i, item := range items {
		doc, err := New(item)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Values unwraps documents into their raw hits.
func Values(docs []Document) []value.Value {
	out := make([]value.Value, len(docs))
	for i, d := range docs {
		out[i] = d.raw
	}
	return out
}
