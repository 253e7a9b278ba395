package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/logview/internal/usecase/table"
)

func newQueryCommand(factory Factory, ro *RootOptions) *cobra.Command {
	var expand []string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Fetch a batch and render one page",
		Long: `Fetch the documents matching the query in the time window and render one
page as a table: the timestamp column, then the selected fields or a document
preview clamped to four lines. --expand shows all flattened fields of a row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := newRenderer(ro, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return run(cmd, factory, ro, func(svc *Services) error {
				opts, err := ro.query.options(svc.Logs)
				if err != nil {
					return err
				}

				view, err := svc.Logs.Search(cmd.Context(), opts)
				if err != nil {
					return err
				}

				expansion := table.NewExpansion()
				for _, id := range expand {
					for _, row := range view.Rows {
						if (row.ID == id || row.Key == id) && !expansion.IsExpanded(row.Key) {
							expansion.Toggle(row.Key)
						}
					}
				}

				details := make(map[string]table.Detail, expansion.Len())
				for _, row := range view.Rows {
					if !expansion.IsExpanded(row.Key) {
						continue
					}
					// view.Options carries the resolved window, so this reuses the batch.
					d, err := svc.Logs.Detail(cmd.Context(), view.Options, row.Key)
					if err != nil {
						return err
					}
					details[row.Key] = d
				}

				return r.View(view, details)
			})
		},
	}
	cmd.Flags().StringArrayVar(&expand, "expand", nil, "expand the row with this document id or row key, repeatable")
	return cmd
}

func newFieldsCommand(factory Factory, ro *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the fields discovered in the batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := newRenderer(ro, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return run(cmd, factory, ro, func(svc *Services) error {
				opts, err := ro.query.options(svc.Logs)
				if err != nil {
					return err
				}
				fields, err := svc.Logs.Fields(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return r.Fields(fields)
			})
		},
	}
}

func newHistoryCommand(factory Factory, ro *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List previously submitted queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := newRenderer(ro, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return run(cmd, factory, ro, func(svc *Services) error {
				queries, err := svc.Logs.History(cmd.Context())
				if err != nil {
					return err
				}
				return r.History(queries)
			})
		},
	}
}
