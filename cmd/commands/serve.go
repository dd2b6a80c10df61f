package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ncobase/jobqueue/config"
	"github.com/spf13/cobra"
)

func newServeCommand(confPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Start the job queue and its HTTP API",
		Long: `Start the worker pool, recover pending and retrying jobs from the store,
and serve the job API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*confPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			app, cleanup, err := InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
