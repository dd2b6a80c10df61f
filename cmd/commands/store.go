package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/jobqueue/config"
	"github.com/ncobase/jobqueue/job/data/repository"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/spf13/cobra"
)

// Store runs maintenance against the job store without starting workers
type Store struct {
	repo   repository.JobRepository
	logger *logger.Logger
}

// NewStore creates a maintenance store
func NewStore(repo repository.JobRepository, l *logger.Logger) *Store {
	return &Store{repo: repo, logger: l}
}

// Migrate creates the job schema
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.repo.CreateSchema(ctx); err != nil {
		return fmt.Errorf("create job schema: %w", err)
	}
	s.logger.Info(ctx, "Job schema ready")
	return nil
}

// Cleanup deletes finished jobs completed more than days days ago
func (s *Store) Cleanup(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, errors.New("days must not be negative")
	}
	n, err := s.repo.CleanupOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "Cleaned up old jobs", "deleted", n, "older_than_days", days)
	return n, nil
}

func newMigrateCommand(confPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Create the jobs schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(*confPath, func(s *Store) error {
				return s.Migrate(commandContext(cmd))
			})
		},
	}
}

func newCleanupCommand(confPath *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Args:  cobra.NoArgs,
		Short: "Delete finished jobs older than --days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(*confPath, func(s *Store) error {
				if !cmd.Flags().Changed("days") {
					cfg, err := config.GetConfig()
					if err != nil {
						return err
					}
					days = cfg.Jobs.CleanupDays
				}
				n, err := s.Cleanup(commandContext(cmd), days)
				if err != nil {
					return err
				}
				cmd.Printf("Deleted %d jobs older than %d days\n", n, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "age in days of finished jobs to delete (default jobs.cleanup_days)")
	return cmd
}

func withStore(confPath string, fn func(*Store) error) error {
	cfg, err := config.LoadConfig(confPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Jobs.Store == config.StoreMemory {
		return errors.New("the memory store has nothing to maintain")
	}

	s, cleanup, err := InitializeStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()
	return fn(s)
}
