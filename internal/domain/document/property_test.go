package document

import (
	"testing"

	"github.com/kailas-cloud/logview/internal/domain/value"
)

func TestGetProperty(t *testing.T) {
	doc := value.MustParse(`{
		"a": {"b": {"c": "deep"}, "n": null, "s": "str"},
		"tags": ["x", "y"],
		"zero": 0,
		"empty": ""
	}`)

	tests := []struct {
		path   string
		want   string
		absent bool
	}{
		{path: "a.b.c", want: "deep"},
		{path: "zero", want: "0"},
		{path: "empty", want: ""},
		{path: "tags.1", want: "y"},
		{path: "a.b", want: `{"c":"deep"}`},
		{path: "missing", absent: true},
		{path: "a.missing.c", absent: true},
		{path: "a.n", absent: true},
		{path: "a.n.x", absent: true},
		{path: "a.s.x", absent: true},
		{path: "tags.5", absent: true},
		{path: "tags.x", absent: true},
		{path: "", absent: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := GetProperty(doc, tt.path)
			if ok == tt.absent {
				t.Fatalf("GetProperty(%q) present=%v, want present=%v", tt.path, ok, !tt.absent)
			}
			if ok && got.Text() != tt.want {
				t.Errorf("GetProperty(%q) = %q, want %q", tt.path, got.Text(), tt.want)
			}
		})
	}
}

func TestGetProperty_AbsentIffPrefixMissingOrNull(t *testing.T) {
	doc := value.MustParse(`{"a":{"b":null,"c":{"d":1}}}`)
	paths := map[string]bool{
		"a":       true,
		"a.b":     false,
		"a.b.z":   false,
		"a.c":     true,
		"a.c.d":   true,
		"a.c.d.e": false,
		"x.c.d":   false,
	}
	for p, present := range paths {
		if _, ok := GetProperty(doc, p); ok != present {
			t.Errorf("GetProperty(%q) present=%v, want %v", p, ok, present)
		}
	}
}

func TestGetProperty_DoesNotMutate(t *testing.T) {
	doc := value.MustParse(`{"a":{"b":1}}`)
	before, _ := doc.MarshalJSON()
	_, _ = GetProperty(doc, "a.b.c")
	after, _ := doc.MarshalJSON()
	if string(before) != string(after) {
		t.Fatalf("document mutated: %s -> %s", before, after)
	}
}
