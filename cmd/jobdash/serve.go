package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/project-tktt/job-dashboard/internal/config"
	"github.com/project-tktt/job-dashboard/internal/dashboard"
	"github.com/project-tktt/job-dashboard/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTML dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			srvCfg := server.Config{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				DefaultQuery: cfg.Dashboard.DefaultQuery,
				Region:       regionName(cfg.Adzuna.PopularRegion),
			}
			if a.quota != nil && cfg.Source.Kind == config.SourceAdzuna {
				srvCfg.Quota = a.quota
				srvCfg.QuotaKey = a.source.Name()
			}

			srv, err := server.New(srvCfg, dashboard.NewCoordinator(a.service, a.metrics), a.metrics, opts.log)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	return cmd
}

// regionName is the most specific level of the popular-jobs region
func regionName(region []string) string {
	for i := len(region) - 1; i >= 0; i-- {
		if r := strings.TrimSpace(region[i]); r != "" {
			return r
		}
	}
	return ""
}
