// Package timestamp formats document time values for display and export.
package timestamp

import (
	"time"

	"github.com/kailas-cloud/logview/internal/domain/value"
)

// Layout is the rendered time format.
const Layout = "2006-01-02 15:04:05"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
}

// Formatter renders time values in a fixed location.
type Formatter struct {
	loc *time.Location
}

// New creates a Formatter. A nil location means time.Local.
func New(loc *time.Location) Formatter {
	if loc == nil {
		loc = time.Local
	}
	return Formatter{loc: loc}
}

// Location returns the display location.
func (f Formatter) Location() *time.Location {
	if f.loc == nil {
		return time.Local
	}
	return f.loc
}

// Format renders v: strings are parsed as RFC 3339 timestamps, numbers are
// epoch milliseconds. Values that are not times are returned as their text.
func (f Formatter) Format(v value.Value) string {
	t, ok := Parse(v)
	if !ok {
		return v.Text()
	}
	return t.In(f.Location()).Format(Layout)
}

// Parse converts a document time value to a time.Time.
func Parse(v value.Value) (time.Time, bool) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		for _, layout := range parseLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	case value.KindNumber:
		if ms, ok := v.Float(); ok {
			return time.UnixMilli(int64(ms)), true
		}
	}
	return time.Time{}, false
}
