package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Parse decodes exactly one JSON value, keeping object key order and number literals.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decode(dec)
	if err != nil {
		return Value{}, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("parse json: trailing data after value")
	}
	return v, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err //nolint:wrapcheck // wrapped once by Parse
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(string(t)), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := Value{kind: KindObject, index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err //nolint:wrapcheck // wrapped once by Parse
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %T", tok)
		}
		val, err := decode(dec)
		if err != nil {
			return Value{}, err
		}
		obj.set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return Value{}, err //nolint:wrapcheck // wrapped once by Parse
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	arr := Value{kind: KindArray, items: []Value{}}
	for dec.More() {
		item, err := decode(dec)
		if err != nil {
			return Value{}, err
		}
		arr.items = append(arr.items, item)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return Value{}, err //nolint:wrapcheck // wrapped once by Parse
	}
	return arr, nil
}
