// Package filter builds the query clauses behind the per-field filter actions
// of an expanded document row.
package filter

import (
	"fmt"
	"strings"
)

// Operator is a filter action.
type Operator string

const (
	// OpEqual keeps documents where the field equals the value.
	OpEqual Operator = "eq"
	// OpNotEqual drops documents where the field equals the value.
	OpNotEqual Operator = "neq"
	// OpExists keeps documents that have the field.
	OpExists Operator = "exists"
)

// ParseOperator validates an operator name.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpEqual, OpNotEqual, OpExists:
		return Operator(s), nil
	default:
		return "", fmt.Errorf("unknown filter operator %q", s)
	}
}

// Equal returns the clause for field == value.
func Equal(field, value string) string {
	return fmt.Sprintf(" AND %s: %s", field, quote(value))
}

// NotEqual returns the clause for field != value.
func NotEqual(field, value string) string {
	return fmt.Sprintf(" AND NOT %s: %s", field, quote(value))
}

// Exists returns the clause for documents having field.
func Exists(field string) string {
	return " AND _exists_: " + field
}

// Clause builds the clause for op.
func Clause(op Operator, field, value string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("filter field is required")
	}
	switch op {
	case OpEqual:
		return Equal(field, value), nil
	case OpNotEqual:
		return NotEqual(field, value), nil
	case OpExists:
		return Exists(field), nil
	default:
		return "", fmt.Errorf("unknown filter operator %q", op)
	}
}

// Apply appends clause to the active query.
func Apply(query, clause string) string {
	return query + clause
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
