package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kailas-cloud/logview/internal/domain/filter"
	"github.com/kailas-cloud/logview/internal/domain/options"
	"github.com/kailas-cloud/logview/internal/domain/timerange"
	logsuc "github.com/kailas-cloud/logview/internal/usecase/logs"
)

// queryFlags select the batch and page. --options takes a shared URL query
// string; the other flags override it.
type queryFlags struct {
	flags *pflag.FlagSet

	raw       string
	dataView  string
	query     string
	time      string
	timeStart int64
	timeEnd   int64
	page      int
	perPage   int
	fields    []string

	equal    []string
	notEqual []string
	exists   []string
}

func (q *queryFlags) bind(fs *pflag.FlagSet) {
	q.flags = fs
	fs.StringVar(&q.raw, "options", "", "page options as a URL query string, e.g. 'query=*&fields[]=msg'")
	fs.StringVar(&q.dataView, "data-view", "", "data view name (default: the first configured)")
	fs.StringVarP(&q.query, "query", "q", "", "query string (default: *)")
	fs.StringVar(&q.time, "time", "", "time preset: "+strings.Join(timerange.Presets(), ", ")+", custom")
	fs.Int64Var(&q.timeStart, "from", 0, "window start, epoch seconds (implies --time custom)")
	fs.Int64Var(&q.timeEnd, "to", 0, "window end, epoch seconds (implies --time custom)")
	fs.IntVar(&q.page, "page", 0, "page number (default: 1)")
	fs.IntVar(&q.perPage, "per-page", 0, "documents per page (default: 100)")
	fs.StringArrayVarP(&q.fields, "field", "f", nil, "selected field, repeatable; replaces the --options selection")
	fs.StringArrayVar(&q.equal, "eq", nil, "add filter field=value, repeatable")
	fs.StringArrayVar(&q.notEqual, "neq", nil, "add negated filter field=value, repeatable")
	fs.StringArrayVar(&q.exists, "exists", nil, "add filter on field presence, repeatable")
}

// options merges --options with the explicit flags and applies the filters.
func (q *queryFlags) options(svc *logsuc.Service) (options.Options, error) {
	opts := options.Options{}
	if q.raw != "" {
		var err error
		if opts, err = options.Parse(strings.TrimPrefix(q.raw, "?")); err != nil {
			return options.Options{}, err
		}
	}

	if q.changed("data-view") {
		opts.DataView = q.dataView
	}
	if q.changed("query") {
		opts.Query = q.query
	}
	if q.changed("field") {
		opts.Fields = q.fields
	}
	if q.changed("per-page") {
		opts.PerPage = q.perPage
	}
	if q.changed("time") {
		opts.Time = q.time
	}
	if q.changed("from") || q.changed("to") {
		opts.TimeStart, opts.TimeEnd = q.timeStart, q.timeEnd
		if !q.changed("time") {
			opts.Time = timerange.Custom
		}
	}

	var err error
	for _, f := range []struct {
		op     filter.Operator
		values []string
	}{
		{filter.OpEqual, q.equal},
		{filter.OpNotEqual, q.notEqual},
	} {
		for _, kv := range f.values {
			field, value, ok := strings.Cut(kv, "=")
			if !ok {
				return options.Options{}, fmt.Errorf("filter %q must be field=value", kv)
			}
			if opts, err = svc.AddFilter(opts, f.op, field, value); err != nil {
				return options.Options{}, err
			}
		}
	}
	for _, field := range q.exists {
		if opts, err = svc.AddFilter(opts, filter.OpExists, field, ""); err != nil {
			return options.Options{}, err
		}
	}

	if q.changed("page") {
		opts.Page = q.page
	}
	return opts.Normalize(), nil
}

func (q *queryFlags) changed(name string) bool {
	return q.flags != nil && q.flags.Changed(name)
}
