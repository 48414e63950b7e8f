package main

import (
	"fmt"

	"github.com/project-tktt/job-dashboard/internal/worker"
	"github.com/spf13/cobra"
)

func newBatchCommand(opts *rootOptions) *cobra.Command {
	var (
		concurrency int
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:     "batch <job title>...",
		Short:   "Compute dashboards for several job titles at once",
		Example: `  jobdash batch "data scientist" "data engineer" "ml engineer" --concurrency 2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer a.Close()

			w := worker.NewWorker(a.service, worker.Config{Concurrency: concurrency}, opts.log)
			results := w.Run(cmd.Context(), args)

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), batchJSON(results)); err != nil {
					return err
				}
			} else {
				printBatch(cmd.OutOrStdout(), results)
			}

			if n := worker.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d queries failed", n, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "dashboards computed at once")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

type batchItem struct {
	Query      string `json:"query"`
	Dashboard  any    `json:"dashboard,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func batchJSON(results []worker.Result) []batchItem {
	items := make([]batchItem, len(results))
	for i, r := range results {
		items[i] = batchItem{Query: r.Query, DurationMS: r.Duration.Milliseconds()}
		if r.Err != nil {
			items[i].Error = r.Err.Error()
		} else {
			items[i].Dashboard = r.Dashboard
		}
	}
	return items
}
