package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/project-tktt/job-dashboard/internal/config"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"github.com/spf13/cobra"
)

// rootOptions are filled before any subcommand runs
type rootOptions struct {
	envFile string
	debug   bool

	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "jobdash",
		Short:         "Job market dashboard: skills, employers and popular titles for a job search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log at debug level")

	root.AddCommand(
		newServeCommand(opts),
		newQueryCommand(opts),
		newBatchCommand(opts),
		newSkillsCommand(opts),
	)
	return root
}

func (o *rootOptions) init() error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}

	o.cfg = config.Load()
	if o.debug {
		o.cfg.Log.Level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       o.cfg.Log.Level,
		Development: o.cfg.Log.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}
	o.log = log
	return nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
