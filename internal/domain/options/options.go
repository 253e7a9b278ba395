// Package options is the serializable page state of the log viewer.
// Encode and Decode are the URL query string binding; the struct itself is
// transport-agnostic and also travels as JSON.
package options

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/selection"
	"github.com/kailas-cloud/logview/internal/domain/timerange"
)

// Defaults applied by Normalize.
const (
	DefaultQuery   = "*"
	DefaultPage    = 1
	DefaultPerPage = 100
)

// URL query keys.
const (
	KeyDataView  = "dataView"
	KeyQuery     = "query"
	KeyFields    = "fields[]"
	KeyPage      = "page"
	KeyPerPage   = "perPage"
	KeyTime      = "time"
	KeyTimeStart = "timeStart"
	KeyTimeEnd   = "timeEnd"
)

// Options is the page state of one log viewer instance.
type Options struct {
	DataView  string   `json:"dataView"`
	Query     string   `json:"query"`
	Fields    []string `json:"fields"`
	Page      int      `json:"page"`
	PerPage   int      `json:"perPage"`
	Time      string   `json:"time"`
	TimeStart int64    `json:"timeStart,omitempty"`
	TimeEnd   int64    `json:"timeEnd,omitempty"`
}

// Normalize fills defaults and de-duplicates fields.
func (o Options) Normalize() Options {
	if o.Query == "" {
		o.Query = DefaultQuery
	}
	if o.Page <= 0 {
		o.Page = DefaultPage
	}
	if o.PerPage <= 0 {
		o.PerPage = DefaultPerPage
	}
	if o.Time == "" {
		o.Time = timerange.DefaultPreset
	}
	o.Fields = o.Selection().Fields()
	return o
}

// TimeRange validates and returns the time window.
func (o Options) TimeRange() (timerange.Range, error) {
	r, err := timerange.New(o.Time, o.TimeStart, o.TimeEnd)
	if err != nil {
		return timerange.Range{}, fmt.Errorf("%w: %w", domain.ErrInvalidOptions, err)
	}
	return r, nil
}

// Selection returns the selected fields.
func (o Options) Selection() selection.Selection {
	return selection.FromFields(o.Fields)
}

// WithSelection returns a copy with the given field selection.
func (o Options) WithSelection(s selection.Selection) Options {
	o.Fields = s.Fields()
	return o
}

// Encode renders the options as URL query values.
func (o Options) Encode() url.Values {
	q := url.Values{}
	if o.DataView != "" {
		q.Set(KeyDataView, o.DataView)
	}
	q.Set(KeyQuery, o.Query)
	for _, f := range o.Fields {
		q.Add(KeyFields, f)
	}
	if o.Page > 0 {
		q.Set(KeyPage, strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set(KeyPerPage, strconv.Itoa(o.PerPage))
	}
	if o.Time != "" {
		q.Set(KeyTime, o.Time)
	}
	if o.TimeStart > 0 {
		q.Set(KeyTimeStart, strconv.FormatInt(o.TimeStart, 10))
	}
	if o.TimeEnd > 0 {
		q.Set(KeyTimeEnd, strconv.FormatInt(o.TimeEnd, 10))
	}
	return q
}

// Decode parses URL query values and normalizes the result.
// Both "fields[]" and "fields" are accepted for the selection.
func Decode(q url.Values) (Options, error) {
	o := Options{
		DataView: q.Get(KeyDataView),
		Query:    q.Get(KeyQuery),
		Time:     q.Get(KeyTime),
	}
	o.Fields = append(o.Fields, q[KeyFields]...)
	o.Fields = append(o.Fields, q["fields"]...)

	var err error
	if o.Page, err = atoi(q, KeyPage); err != nil {
		return Options{}, err
	}
	if o.PerPage, err = atoi(q, KeyPerPage); err != nil {
		return Options{}, err
	}
	if o.TimeStart, err = atoi64(q, KeyTimeStart); err != nil {
		return Options{}, err
	}
	if o.TimeEnd, err = atoi64(q, KeyTimeEnd); err != nil {
		return Options{}, err
	}

	o = o.Normalize()
	if _, err := o.TimeRange(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// Parse decodes a raw query string such as the part after "?" in a shared URL.
func Parse(raw string) (Options, error) {
	q, err := url.ParseQuery(raw)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", domain.ErrInvalidOptions, err)
	}
	return Decode(q)
}

func atoi(q url.Values, key string) (int, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidOptions, key, s)
	}
	return n, nil
}

func atoi64(q url.Values, key string) (int64, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidOptions, key, s)
	}
	return n, nil
}
