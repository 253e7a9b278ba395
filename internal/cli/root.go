// Package cli implements the logviewctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/logview/internal/app"
	"github.com/kailas-cloud/logview/internal/config"
	logpkg "github.com/kailas-cloud/logview/internal/logger"
	"github.com/kailas-cloud/logview/internal/output"
	"github.com/kailas-cloud/logview/internal/usecase/export"
	logsuc "github.com/kailas-cloud/logview/internal/usecase/logs"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Services are the log viewer services a command runs against.
type Services struct {
	Logs     *logsuc.Service
	Exporter *export.Exporter
	Close    func()
}

// Factory builds the services for one command run.
type Factory func(ctx context.Context, ro *RootOptions) (*Services, error)

// RootOptions are the global flags.
type RootOptions struct {
	ConfigPath string
	Env        string
	Output     string

	query queryFlags
}

// DefaultFactory loads the configuration file and wires the services from it.
func DefaultFactory(ctx context.Context, ro *RootOptions) (*Services, error) {
	var cfg config.Config
	var err error
	if ro.ConfigPath != "" {
		cfg, err = config.LoadFile(ro.ConfigPath)
	} else {
		cfg, err = config.Load(ro.Env)
	}
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger("cli")
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &Services{
		Logs:     a.Logs,
		Exporter: a.Exporter,
		Close: func() {
			a.Close()
			_ = logger.Sync()
		},
	}, nil
}

// NewRootCommand builds the logviewctl command tree.
func NewRootCommand(factory Factory, stdout, stderr io.Writer) *cobra.Command {
	ro := &RootOptions{}

	root := &cobra.Command{
		Use:   "logviewctl",
		Short: "Query and export log documents",
		Long: `logviewctl fetches log document batches for a data view, renders them as a
table and exports them as JSON or CSV.

Examples:
  logviewctl query -q 'level: error' --time last1Hour -f msg -f kubernetes.pod
  logviewctl query --options 'dataView=app&query=*&fields[]=msg&time=last15Minutes'
  logviewctl export --format csv -f msg --out ./exports
  logviewctl history`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&ro.ConfigPath, "config", "c", "", "config file (default: config/<env>.yaml)")
	pf.StringVar(&ro.Env, "env", config.GetEnv(), "config environment")
	pf.StringVarP(&ro.Output, "output", "o", FormatText, "output format: text, json")
	ro.query.bind(pf)

	root.AddCommand(
		newQueryCommand(factory, ro),
		newFieldsCommand(factory, ro),
		newExportCommand(factory, ro),
		newHistoryCommand(factory, ro),
		newVersionCommand(),
	)
	return root
}

// Execute runs logviewctl with the process arguments.
func Execute(ctx context.Context, stdout, stderr io.Writer) error {
	return NewRootCommand(DefaultFactory, stdout, stderr).ExecuteContext(ctx)
}

func newRenderer(ro *RootOptions, w io.Writer) (output.Renderer, error) {
	switch strings.ToLower(ro.Output) {
	case FormatText:
		return output.NewTextRenderer(w), nil
	case FormatJSON:
		return output.NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", ro.Output)
	}
}

// run builds the services, runs fn and releases them.
func run(cmd *cobra.Command, factory Factory, ro *RootOptions, fn func(*Services) error) error {
	svc, err := factory(cmd.Context(), ro)
	if err != nil {
		return err
	}
	if svc.Close != nil {
		defer svc.Close()
	}
	return fn(svc)
}
