//go:build wireinject

package commands

import (
	"github.com/google/wire"
	"github.com/ncobase/jobqueue/config"
	"github.com/ncobase/jobqueue/job"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/messaging/email"
)

// InitializeApp wires the service from a loaded configuration. The cleanup
// function releases connections in reverse order of creation.
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		logger.ProviderSet,
		ProvideObservability,
		ProvideData,
		ProvideRepository,
		email.ProviderSet,
		ProvideEvents,
		ProvideNotifier,
		ProvideHandlers,
		ProvideQueueConfig,
		job.ProviderSet,
		NewApp,
	))
}

// InitializeStore wires only the job store, for maintenance commands.
func InitializeStore(cfg *config.Config) (*Store, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		logger.ProviderSet,
		ProvideData,
		ProvideRepository,
		NewStore,
	))
}
