package dataview

import (
	"fmt"

	"github.com/kailas-cloud/logview/internal/domain"
)

// DataView is a named projection over a document collection.
type DataView struct {
	name           string
	indexPattern   string
	timestampField string
}

// New validates and creates a DataView. timestampField may be empty.
func New(name, indexPattern, timestampField string) (DataView, error) {
	if name == "" {
		return DataView{}, fmt.Errorf("data view name is required")
	}
	if indexPattern == "" {
		return DataView{}, fmt.Errorf("data view %q: index pattern is required", name)
	}
	return DataView{name: name, indexPattern: indexPattern, timestampField: timestampField}, nil
}

// Name returns the data view name.
func (d DataView) Name() string { return d.name }

// IndexPattern returns the backing collection pattern.
func (d DataView) IndexPattern() string { return d.indexPattern }

// TimestampField returns the dotted path of the time field, or "".
func (d DataView) TimestampField() string { return d.timestampField }

// HasTimestamp reports whether a timestamp column and time buckets apply.
func (d DataView) HasTimestamp() bool { return d.timestampField != "" }

// Set is the static, ordered list of data views of one plugin instance.
type Set struct {
	views  []DataView
	byName map[string]int
}

// NewSet creates a Set. Names must be unique and at least one view is required.
func NewSet(views ...DataView) (*Set, error) {
	if len(views) == 0 {
		return nil, fmt.Errorf("at least one data view is required")
	}
	s := &Set{views: make([]DataView, 0, len(views)), byName: make(map[string]int, len(views))}
	for _, v := range views {
		if _, dup := s.byName[v.name]; dup {
			return nil, fmt.Errorf("duplicate data view %q", v.name)
		}
		s.byName[v.name] = len(s.views)
		s.views = append(s.views, v)
	}
	return s, nil
}

// Get returns the view with the given name.
func (s *Set) Get(name string) (DataView, error) {
	i, ok := s.byName[name]
	if !ok {
		return DataView{}, fmt.Errorf("data view %q: %w", name, domain.ErrDataViewNotFound)
	}
	return s.views[i], nil
}

// Resolve returns the named view, or the default one when name is empty.
func (s *Set) Resolve(name string) (DataView, error) {
	if name == "" {
		return s.Default(), nil
	}
	return s.Get(name)
}

// Default returns the first configured view.
func (s *Set) Default() DataView { return s.views[0] }

// All returns the views in configuration order.
func (s *Set) All() []DataView {
	out := make([]DataView, len(s.views))
	copy(out, s.views)
	return out
}
