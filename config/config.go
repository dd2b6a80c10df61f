package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	dc "github.com/ncobase/jobqueue/data/config"
	lc "github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/ncobase/jobqueue/messaging/email"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. JOBQUEUE_JOBS_MAX_WORKERS
const EnvPrefix = "JOBQUEUE"

var (
	config *Config
	path   string
	mu     sync.Mutex
	v      *viper.Viper
)

// Config represents the configuration implementation.
type Config struct {
	AppName  string       `validate:"required"`
	Version  string       `validate:"-"`
	Server   *Server      `validate:"required"`
	Logger   *lc.Config   `validate:"required"`
	Data     *dc.Config   `validate:"required"`
	Jobs     *Jobs        `validate:"required"`
	Notifier *Notifier    `validate:"required"`
	Observes *Observes    `validate:"required"`
	Email    *email.Email `validate:"required"`
	Viper    *viper.Viper `validate:"-"`
}

// GetConfig returns the configuration loaded last, loading it from the
// default search paths if nothing was loaded yet.
func GetConfig() (*Config, error) {
	mu.Lock()
	cfg := config
	mu.Unlock()
	if cfg != nil {
		return cfg, nil
	}
	return LoadConfig(path)
}

// LoadConfig loads the configuration from configPath. An empty path searches
// /etc/jobqueue, $HOME/.jobqueue, the working directory and the executable's
// directory for config.{yaml,json,toml}; finding none there is not an error
// and the defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	nv := viper.New()
	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		ex, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		nv.SetConfigName("config")
		nv.AddConfigPath("/etc/jobqueue")
		nv.AddConfigPath("$HOME/.jobqueue")
		nv.AddConfigPath(".")
		nv.AddConfigPath(filepath.Dir(ex))
	}

	nv.SetEnvPrefix(EnvPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	setDefaults(nv)

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		AppName:  nv.GetString("app_name"),
		Version:  nv.GetString("version"),
		Server:   getServerConfig(nv),
		Logger:   lc.GetConfig(nv),
		Data:     dc.GetConfig(nv),
		Jobs:     getJobsConfig(nv),
		Notifier: getNotifierConfig(nv),
		Observes: getObservesConfig(nv),
		Email:    getEmailConfig(nv),
		Viper:    nv,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	config, path, v = cfg, configPath, nv
	mu.Unlock()
	return cfg, nil
}

// setDefaults registers defaults for keys read directly by sub-packages
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "jobqueue")
	v.SetDefault("data.database.master.driver", "sqlite")
	v.SetDefault("data.database.master.source", "file:jobqueue.db?_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("data.database.migrate", true)
}

// Validate checks field constraints and the backends the selected store and
// sinks depend on.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	switch c.Jobs.Store {
	case StoreDatabase:
		if c.Data.Database == nil || c.Data.Database.Master == nil || c.Data.Database.Master.Driver == "" {
			errs = append(errs, errors.New("jobs.store is database but data.database.master.driver is empty"))
		}
	case StoreMongoDB:
		if c.Data.MongoDB == nil || c.Data.MongoDB.URI == "" {
			errs = append(errs, errors.New("jobs.store is mongodb but data.mongodb.uri is empty"))
		}
	}
	if c.Notifier.HasSink(SinkRedis) && (c.Data.Redis == nil || c.Data.Redis.Addr == "") {
		errs = append(errs, errors.New("notifier sink redis needs data.redis.addr"))
	}
	if c.Notifier.HasSink(SinkKafka) && (c.Data.Kafka == nil || len(c.Data.Kafka.Brokers) == 0) {
		errs = append(errs, errors.New("notifier sink kafka needs data.kafka.brokers"))
	}
	if c.Notifier.HasSink(SinkRabbitMQ) && (c.Data.RabbitMQ == nil || c.Data.RabbitMQ.URL == "") {
		errs = append(errs, errors.New("notifier sink rabbitmq needs data.rabbitmq.url"))
	}
	if c.Email.Provider != "" {
		if _, err := email.NewSender(c.emailProviderConfig()); err != nil {
			errs = append(errs, fmt.Errorf("email.%s: %w", c.Email.Provider, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) emailProviderConfig() email.Config {
	switch c.Email.Provider {
	case email.ProviderMailgun:
		return c.Email.Mailgun
	case email.ProviderSendGrid:
		return c.Email.SendGrid
	default:
		return c.Email.SMTP
	}
}

// Reload reloads the configuration from the file.
func Reload() error {
	mu.Lock()
	p := path
	mu.Unlock()

	if _, err := LoadConfig(p); err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	return nil
}

// Watch watches the configuration file and reloads it when it changes. The
// callback receives the reloaded configuration; an invalid file keeps the
// previous one and is reported through onError.
func Watch(callback func(*Config), onError func(error)) error {
	mu.Lock()
	w := v
	mu.Unlock()
	if w == nil || w.ConfigFileUsed() == "" {
		return errors.New("no config file to watch")
	}

	w.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := Reload(); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if callback != nil {
			cfg, _ := GetConfig()
			callback(cfg)
		}
	})
	w.WatchConfig()
	return nil
}
