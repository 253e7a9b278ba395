package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/logview/internal/usecase/export"
)

// Export formats.
const (
	ExportJSON     = "json"
	ExportCSV      = "csv"
	ExportDocument = "document"
)

func newExportCommand(factory Factory, ro *RootOptions) *cobra.Command {
	var (
		format string
		out    string
		id     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the loaded batch",
		Long: `Export the whole loaded batch. json writes the raw documents, csv writes the
timestamp and the selected fields (at least one --field is required), document
writes the single document --id as {id}__{index}.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, factory, ro, func(svc *Services) error {
				opts, err := ro.query.options(svc.Logs)
				if err != nil {
					return err
				}

				exporter := svc.Exporter
				if out != "" {
					exporter = exporter.WithDownloader(export.NewDirDownloader(out))
				}

				ctx := cmd.Context()
				switch format {
				case ExportJSON, ExportCSV:
					batch, err := svc.Logs.Batch(ctx, opts)
					if err != nil {
						return err
					}
					if format == ExportJSON {
						err = exporter.DownloadJSON(ctx, batch)
					} else {
						err = exporter.DownloadCSV(ctx, batch)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "exported %d documents\n", len(batch.Documents))
					return nil
				case ExportDocument:
					if id == "" {
						return fmt.Errorf("--id is required for the document format")
					}
					doc, err := svc.Logs.Document(ctx, opts, id)
					if err != nil {
						return err
					}
					if err := exporter.DownloadDocument(ctx, doc); err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "exported %s\n", export.DocumentFileName(doc))
					return nil
				default:
					return fmt.Errorf("unknown export format %q", format)
				}
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", ExportJSON, "export format: json, csv, document")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default: export.dir from config)")
	cmd.Flags().StringVar(&id, "id", "", "document id or row key for the document format")
	return cmd
}
