// Package value models untyped JSON documents as a closed sum type.
//
// Objects keep the key order of the source text and numbers keep their literal,
// so a decoded document re-encodes to the bytes it was decoded from (modulo
// insignificant whitespace).
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind enumerates the JSON value variants.
type Kind uint8

const (
	// KindNull is the JSON null (and the zero Value).
	KindNull Kind = iota
	// KindBool is true or false.
	KindBool
	// KindNumber is a number kept as its literal text.
	KindNumber
	// KindString is a JSON string.
	KindString
	// KindObject is an ordered set of members.
	KindObject
	// KindArray is a list of values.
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	s       string // string contents or number literal
	members []Member
	index   map[string]int
	items   []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a number value from its literal text.
func Number(literal string) Value { return Value{kind: KindNumber, s: literal} }

// Int returns a number value for an integer.
func Int(n int64) Value { return Number(strconv.FormatInt(n, 10)) }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: append([]Value(nil), items...)}
}

// Object returns an object value. A repeated key keeps its first position and its last value.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, members: make([]Member, 0, len(members)), index: make(map[string]int, len(members))}
	for _, m := range members {
		v.set(m.Key, m.Value)
	}
	return v
}

// Field is shorthand for a Member literal.
func Field(key string, v Value) Member { return Member{Key: key, Value: v} }

func (v *Value) set(key string, val Value) {
	if i, ok := v.index[key]; ok {
		v.members[i].Value = val
		return
	}
	v.index[key] = len(v.members)
	v.members = append(v.members, Member{Key: key, Value: val})
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Literal returns the literal text of a number, or "" for other kinds.
func (v Value) Literal() string {
	if v.kind != KindNumber {
		return ""
	}
	return v.s
}

// Float returns the numeric value and whether v is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Members returns object members in key order. Nil for non-objects.
func (v Value) Members() []Member { return v.members }

// Items returns array elements. Nil for non-arrays.
func (v Value) Items() []Value { return v.items }

// Len returns the number of members or items.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.members)
	case KindArray:
		return len(v.items)
	default:
		return 0
	}
}

// Get returns the member stored under key. Always false for non-objects.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	i, ok := v.index[key]
	if !ok {
		return Value{}, false
	}
	return v.members[i].Value, true
}

// At returns the i-th array element. Always false for non-arrays.
func (v Value) At(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Text renders v for display: strings as is, numbers as their literal, null as "",
// objects and arrays as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber, KindString:
		return v.s
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// MarshalJSON encodes v compactly, in key order, without HTML escaping.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Indent encodes v with two-space indentation.
func (v Value) Indent() ([]byte, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent: %w", err)
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if v.s == "" {
			buf.WriteString("0")
			return nil
		}
		buf.WriteString(v.s)
	case KindString:
		return writeString(buf, v.s)
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("value: unknown kind %d", v.kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}
