package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/jobqueue/config"
	"github.com/ncobase/jobqueue/data"
	dc "github.com/ncobase/jobqueue/data/config"
	"github.com/ncobase/jobqueue/job"
	"github.com/ncobase/jobqueue/job/data/repository"
	"github.com/ncobase/jobqueue/job/handlers"
	"github.com/ncobase/jobqueue/job/notifier"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/logging/observes"
	"github.com/ncobase/jobqueue/messaging/email"

	_ "github.com/ncobase/jobqueue/data/all"
)

const connectTimeout = 30 * time.Second

// Observability marks sentry and tracing as initialised
type Observability struct{}

// ProvideObservability initialises sentry and the OTLP tracer when configured
func ProvideObservability(cfg *config.Config) (*Observability, func(), error) {
	o := cfg.Observes
	flushSentry, err := observes.NewSentry(&observes.SentryOptions{
		Dsn:         o.Sentry.Endpoint,
		Name:        cfg.AppName,
		Release:     o.Sentry.Release,
		Environment: o.Sentry.Environment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init sentry: %w", err)
	}

	shutdownTracer, err := observes.NewTracer(&observes.TracerOption{
		URL:          o.Tracer.Endpoint,
		Name:         o.Tracer.ServiceName,
		Version:      o.Tracer.ServiceVersion,
		Environment:  o.Tracer.Environment,
		SamplingRate: o.Tracer.SamplingRate,
		BatchTimeout: o.Tracer.BatchTimeout,
	})
	if err != nil {
		flushSentry()
		return nil, nil, fmt.Errorf("init tracer: %w", err)
	}

	return &Observability{}, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			logger.Warn(ctx, "Failed to shut down tracer", "error", err)
		}
		flushSentry()
	}, nil
}

// ProvideData connects the backends the job store and the event sinks need.
// The relational database is skipped unless it is the job store.
func ProvideData(cfg *dc.Config, jobs *config.Jobs) (*data.Data, func(), error) {
	c := *cfg
	if jobs.Store != config.StoreDatabase {
		c.Database = nil
	}
	if jobs.Store != config.StoreMongoDB {
		c.MongoDB = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return data.New(ctx, &c)
}

// ProvideRepository returns the job store selected by jobs.store
func ProvideRepository(jobs *config.Jobs, d *data.Data) (repository.JobRepository, error) {
	switch jobs.Store {
	case config.StoreMemory:
		return repository.NewMemoryRepository(), nil
	case config.StoreMongoDB:
		if d.Mongo == nil {
			return nil, errors.New("mongodb store selected but no mongodb connection")
		}
		return repository.NewMongoRepository(d.Mongo)
	default:
		if d.DB == nil {
			return nil, errors.New("database store selected but no database connection")
		}
		return repository.NewSQLRepository(d.DB, d.DBDriver)
	}
}

// ProvideHandlers returns the built-in handler set. A nil mailer keeps email
// delivery simulated.
func ProvideHandlers(jobs *config.Jobs, mailer email.Sender) *handlers.Set {
	return handlers.Default(handlers.Config{TimeScale: jobs.HandlerTimeScale, Mailer: mailer})
}

// ProvideQueueConfig maps the jobs section onto the queue configuration
func ProvideQueueConfig(jobs *config.Jobs) *job.Config {
	return &job.Config{
		MaxWorkers:        jobs.MaxWorkers,
		DefaultMaxRetries: jobs.DefaultMaxRetries,
		RecoveryLimit:     jobs.RecoveryLimit,
		Timeout:           jobs.Timeout,
	}
}

// Events holds the lifecycle event plumbing: the in-process bus behind the
// event stream, and the notifier the queue publishes to.
type Events struct {
	Bus      *notifier.Bus
	Notifier notifier.Notifier
	sinks    []*notifier.Async
}

// ProvideEvents builds the configured notifiers. Every external sink sits
// behind a circuit breaker and an async buffer so a slow broker never holds
// up a worker.
func ProvideEvents(cfg *config.Notifier, d *data.Data, l *logger.Logger) (*Events, func(), error) {
	e := &Events{}
	var ns []notifier.Notifier

	if cfg.Stream {
		bus, err := notifier.NewBus(cfg.MaxInFlight)
		if err != nil {
			return nil, nil, err
		}
		e.Bus = bus
		ns = append(ns, bus)
	}

	var closers []func() error
	wrap := func(name string, n notifier.Notifier) {
		b := notifier.NewBreaker(name, n, notifier.BreakerConfig{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout,
		})
		a := notifier.NewAsync(b, cfg.BufferSize, cfg.Timeout)
		e.sinks = append(e.sinks, a)
		ns = append(ns, a)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, a := range e.sinks {
			if err := a.Close(ctx); err != nil {
				l.Warn(ctx, "Event sink did not drain", "error", err)
			}
		}
		for _, c := range closers {
			if err := c(); err != nil {
				l.Warn(ctx, "Failed to close event sink", "error", err)
			}
		}
	}

	if cfg.HasSink(config.SinkRedis) {
		if d.Redis == nil {
			cleanup()
			return nil, nil, errors.New("redis sink configured but no redis connection")
		}
		n, err := notifier.NewRedis(d.Redis, cfg.Redis.Channel)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		wrap(config.SinkRedis, n)
	}

	if cfg.HasSink(config.SinkKafka) {
		if d.Kafka == nil {
			cleanup()
			return nil, nil, errors.New("kafka sink configured but no kafka connection")
		}
		n, err := notifier.NewKafka(d.Kafka, cfg.Kafka.Topic)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		wrap(config.SinkKafka, n)
	}

	if cfg.HasSink(config.SinkRabbitMQ) {
		if d.RabbitMQ == nil {
			cleanup()
			return nil, nil, errors.New("rabbitmq sink configured but no rabbitmq connection")
		}
		n, err := notifier.NewRabbitMQ(d.RabbitMQ, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, n.Close)
		wrap(config.SinkRabbitMQ, n)
	}

	e.Notifier = notifier.Combine(ns...)
	return e, cleanup, nil
}

// ProvideNotifier returns the notifier the queue publishes to, nil when no
// sink is configured.
func ProvideNotifier(e *Events) notifier.Notifier {
	return e.Notifier
}
