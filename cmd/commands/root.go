// Package commands implements the jobqueue command line.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var confPath string

	rootCmd := &cobra.Command{
		Use:           "jobqueue",
		Short:         "Background job processing service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&confPath, "conf", "c", "", "config file path, e.g. ./config.yaml")

	rootCmd.AddCommand(
		newServeCommand(&confPath),
		newCleanupCommand(&confPath),
		newMigrateCommand(&confPath),
		newVersionCommand(),
	)

	return rootCmd
}
