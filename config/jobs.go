package config

import (
	"time"

	"github.com/spf13/viper"
)

// Job stores selectable with jobs.store
const (
	StoreDatabase = "database"
	StoreMongoDB  = "mongodb"
	StoreMemory   = "memory"
)

// Jobs config struct
type Jobs struct {
	MaxWorkers        int `json:"max_workers" yaml:"max_workers" validate:"gte=1,lte=1024"`
	DefaultMaxRetries int `json:"default_max_retries" yaml:"default_max_retries" validate:"gte=0"`
	// RecoveryLimit caps jobs re-queued at startup, 0 means all
	RecoveryLimit int `json:"recovery_limit" yaml:"recovery_limit" validate:"gte=0"`
	// Timeout bounds a single handler run, 0 disables it
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
	// StopTimeout is how long shutdown waits for queued and running jobs
	StopTimeout time.Duration `json:"stop_timeout" yaml:"stop_timeout" validate:"gt=0"`
	CleanupDays int           `json:"cleanup_days" yaml:"cleanup_days" validate:"gte=0"`
	// HandlerTimeScale multiplies the simulated work of the built-in handlers
	HandlerTimeScale float64 `json:"handler_time_scale" yaml:"handler_time_scale" validate:"gte=0"`
	Store            string  `json:"store" yaml:"store" validate:"oneof=database mongodb memory"`
}

func getJobsConfig(v *viper.Viper) *Jobs {
	return &Jobs{
		MaxWorkers:        getIntOrDefault(v, "jobs.max_workers", 4),
		DefaultMaxRetries: getIntOrDefault(v, "jobs.default_max_retries", 3),
		RecoveryLimit:     v.GetInt("jobs.recovery_limit"),
		Timeout:           v.GetDuration("jobs.timeout"),
		StopTimeout:       getDurationOrDefault(v, "jobs.stop_timeout", 30*time.Second),
		CleanupDays:       getIntOrDefault(v, "jobs.cleanup_days", 30),
		HandlerTimeScale:  getFloat64OrDefault(v, "jobs.handler_time_scale", 1.0),
		Store:             getStringOrDefault(v, "jobs.store", StoreDatabase),
	}
}
