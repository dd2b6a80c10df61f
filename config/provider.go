package config

import (
	"github.com/google/wire"
	dc "github.com/ncobase/jobqueue/data/config"
	lc "github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/ncobase/jobqueue/messaging/email"
)

// ProviderSet is the wire provider set for the config package.
// It extracts sub-configurations from *Config for other modules to use.
//
// Usage:
//
//	wire.Build(
//	    config.ProviderSet,
//	    // ... other providers
//	)
var ProviderSet = wire.NewSet(
	ProvideServerConfig,
	ProvideLoggerConfig,
	ProvideDataConfig,
	ProvideJobsConfig,
	ProvideNotifierConfig,
	ProvideObservesConfig,
	ProvideEmailConfig,
)

// ProvideServerConfig provides the HTTP server configuration.
func ProvideServerConfig(cfg *Config) *Server {
	if cfg == nil {
		return nil
	}
	return cfg.Server
}

// ProvideLoggerConfig provides the logger configuration.
func ProvideLoggerConfig(cfg *Config) *lc.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Logger
}

// ProvideDataConfig provides the data layer configuration.
func ProvideDataConfig(cfg *Config) *dc.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Data
}

// ProvideJobsConfig provides the job queue configuration.
func ProvideJobsConfig(cfg *Config) *Jobs {
	if cfg == nil {
		return nil
	}
	return cfg.Jobs
}

// ProvideNotifierConfig provides the event notifier configuration.
func ProvideNotifierConfig(cfg *Config) *Notifier {
	if cfg == nil {
		return nil
	}
	return cfg.Notifier
}

// ProvideObservesConfig provides the sentry and tracer configuration.
func ProvideObservesConfig(cfg *Config) *Observes {
	if cfg == nil {
		return nil
	}
	return cfg.Observes
}

// ProvideEmailConfig provides the email provider configuration.
func ProvideEmailConfig(cfg *Config) *email.Email {
	if cfg == nil {
		return nil
	}
	return cfg.Email
}
