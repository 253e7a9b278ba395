package document

import "github.com/kailas-cloud/logview/internal/domain/value"

// KeyValue is a flattened (dotted key, scalar value) pair.
type KeyValue struct {
	Key   string      `json:"key"`
	Value value.Value `json:"value"`
}

// KeyValues flattens v into dotted key/value pairs in key order.
// Array-valued properties are skipped at every depth; nested objects are
// recursed with prefix+key+"."; everything else (null included) is emitted.
func KeyValues(v value.Value, prefix string) []KeyValue {
	out := make([]KeyValue, 0, v.Len())
	for _, m := range v.Members() {
		switch m.Value.Kind() {
		case value.KindArray:
			continue
		case value.KindObject:
			out = append(out, KeyValues(m.Value, prefix+m.Key+".")...)
		default:
			out = append(out, KeyValue{Key: prefix + m.Key, Value: m.Value})
		}
	}
	return out
}

// Fields returns the union of leaf field paths of all document payloads,
// in order of first occurrence and without duplicates.
func Fields(docs []Document) []string {
	fields := make([]string, 0)
	seen := make(map[string]struct{})
	for _, d := range docs {
		for _, kv := range KeyValues(d.Source(), "") {
			if _, ok := seen[kv.Key]; ok {
				continue
			}
			seen[kv.Key] = struct{}{}
			fields = append(fields, kv.Key)
		}
	}
	return fields
}
