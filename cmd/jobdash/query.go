package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query [job title]",
		Short: "Compute one dashboard and print it",
		Example: `  jobdash query data scientist
  jobdash query "data engineer" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if query == "" {
				query = opts.cfg.Dashboard.DefaultQuery
			}

			a, err := newApp(cmd.Context(), opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.service.Compute(cmd.Context(), query)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			printDashboard(cmd.OutOrStdout(), d, regionName(opts.cfg.Adzuna.PopularRegion))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the dashboard as JSON")
	return cmd
}
