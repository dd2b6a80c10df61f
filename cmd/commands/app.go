package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ncobase/jobqueue/config"
	"github.com/ncobase/jobqueue/job"
	"github.com/ncobase/jobqueue/job/data/repository"
	"github.com/ncobase/jobqueue/job/handler"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/router"
	"github.com/sirupsen/logrus"
)

// App is the assembled service
type App struct {
	cfg    *config.Config
	logger *logger.Logger
	repo   repository.JobRepository
	queue  *job.Queue
	events *Events
}

// NewApp creates the application
func NewApp(cfg *config.Config, l *logger.Logger, _ *Observability, repo repository.JobRepository, q *job.Queue, events *Events) *App {
	return &App{cfg: cfg, logger: l, repo: repo, queue: q, events: events}
}

// Migrate creates the job schema when the store asks for it
func (a *App) Migrate(ctx context.Context) error {
	db := a.cfg.Data.Database
	if a.cfg.Jobs.Store == config.StoreDatabase && db != nil && !db.Migrate {
		return nil
	}
	if err := a.repo.CreateSchema(ctx); err != nil {
		return fmt.Errorf("create job schema: %w", err)
	}
	return nil
}

// Serve starts the queue and the HTTP API and blocks until ctx is done, then
// shuts both down.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Migrate(ctx); err != nil {
		return err
	}
	if err := a.queue.Start(ctx); err != nil {
		return err
	}

	srv := a.newServer()

	if err := config.Watch(a.reloaded, func(err error) {
		a.logger.Error(context.Background(), "Config reload failed", "error", err)
	}); err != nil {
		a.logger.Debug(ctx, "Config watch disabled", "reason", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	a.logger.Info(ctx, "Shutting down")
	a.shutdown(context.WithoutCancel(ctx), srv)
	return serveErr
}

func (a *App) newServer() *http.Server {
	h := handler.NewJobHandler(a.queue, a.events.Bus, a.logger, a.cfg.Jobs.CleanupDays)
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router.New(a.cfg.Server.Mode, h),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	if a.events.Bus != nil {
		// event streams never go idle, Shutdown would wait on them until it times out
		srv.RegisterOnShutdown(a.events.Bus.CloseStreams)
	}
	return srv
}

// shutdown stops the HTTP server and then the queue, each with its own budget
// so a slow client cannot eat into the time jobs get to finish.
func (a *App) shutdown(ctx context.Context, srv *http.Server) {
	srvCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(srvCtx); err != nil {
		a.logger.Warn(srvCtx, "Server shutdown incomplete", "error", err)
	}

	queueCtx, cancel := context.WithTimeout(ctx, a.cfg.Jobs.StopTimeout)
	defer cancel()
	if err := a.queue.Stop(queueCtx); err != nil {
		a.logger.Warn(queueCtx, "Queue stopped with jobs outstanding; queued jobs stay pending for the next start", "error", err)
	}
}

// reloaded applies the settings that can change without a restart
func (a *App) reloaded(cfg *config.Config) {
	a.logger.SetLevel(logrus.Level(cfg.Logger.Level))
	a.logger.Info(context.Background(), "Configuration reloaded; settings other than the log level apply on restart")
}
