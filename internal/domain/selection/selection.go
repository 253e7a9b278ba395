// Package selection holds the ordered set of fields a user picked as table columns.
package selection

import "fmt"

// Selection is an ordered list of distinct field paths. The zero value is the
// empty selection, which means "show the generic preview".
type Selection struct {
	fields []string
}

// FromFields builds a Selection from persisted state, dropping later duplicates.
func FromFields(fields []string) Selection {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return Selection{fields: out}
}

// Fields returns a copy of the selected fields in column order.
func (s Selection) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of selected fields.
func (s Selection) Len() int { return len(s.fields) }

// IsEmpty reports whether no field is selected.
func (s Selection) IsEmpty() bool { return len(s.fields) == 0 }

// Contains reports whether field is selected.
func (s Selection) Contains(field string) bool {
	return s.indexOf(field) >= 0
}

// Toggle removes field when selected and appends it otherwise.
func (s Selection) Toggle(field string) Selection {
	if i := s.indexOf(field); i >= 0 {
		out := make([]string, 0, len(s.fields)-1)
		out = append(out, s.fields[:i]...)
		out = append(out, s.fields[i+1:]...)
		return Selection{fields: out}
	}
	out := make([]string, 0, len(s.fields)+1)
	out = append(out, s.fields...)
	out = append(out, field)
	return Selection{fields: out}
}

// Swap exchanges the fields at positions from and to.
func (s Selection) Swap(from, to int) (Selection, error) {
	if from < 0 || from >= len(s.fields) || to < 0 || to >= len(s.fields) {
		return s, fmt.Errorf("swap %d<->%d out of range for %d fields", from, to, len(s.fields))
	}
	out := s.Fields()
	out[from], out[to] = out[to], out[from]
	return Selection{fields: out}, nil
}

// MoveUp swaps field i with its predecessor.
func (s Selection) MoveUp(i int) (Selection, error) { return s.Swap(i, i-1) }

// MoveDown swaps field i with its successor.
func (s Selection) MoveDown(i int) (Selection, error) { return s.Swap(i, i+1) }

func (s Selection) indexOf(field string) int {
	for i, f := range s.fields {
		if f == field {
			return i
		}
	}
	return -1
}
