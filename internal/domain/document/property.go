package document

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/logview/internal/domain/value"
)

// GetProperty resolves a dotted path ("a.b.c") against v.
// It reports false as soon as a segment is missing, null, or cannot be walked into;
// absence is a normal result, never an error. Numeric segments index arrays.
func GetProperty(v value.Value, path string) (value.Value, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		var next value.Value
		var ok bool
		switch cur.Kind() {
		case value.KindObject:
			next, ok = cur.Get(seg)
		case value.KindArray:
			if i, err := strconv.Atoi(seg); err == nil {
				next, ok = cur.At(i)
			}
		}
		if !ok || next.IsNull() {
			return value.Value{}, false
		}
		cur = next
	}
	return cur, true
}
