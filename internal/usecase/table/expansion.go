package table

// Expansion tracks the expand/collapse state of rows. Rows start collapsed and
// toggle independently of each other.
type Expansion struct {
	expanded map[string]struct{}
}

// NewExpansion creates an all-collapsed state.
func NewExpansion() *Expansion {
	return &Expansion{expanded: make(map[string]struct{})}
}

// Toggle flips the state of row key and returns whether it is now expanded.
func (e *Expansion) Toggle(key string) bool {
	if _, ok := e.expanded[key]; ok {
		delete(e.expanded, key)
		return false
	}
	e.expanded[key] = struct{}{}
	return true
}

// IsExpanded reports whether row key is expanded.
func (e *Expansion) IsExpanded(key string) bool {
	_, ok := e.expanded[key]
	return ok
}

// Len returns the number of expanded rows.
func (e *Expansion) Len() int { return len(e.expanded) }
