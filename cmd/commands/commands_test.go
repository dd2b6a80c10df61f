package commands

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ncobase/jobqueue/config"
	"github.com/ncobase/jobqueue/data"
	"github.com/ncobase/jobqueue/job"
	"github.com/ncobase/jobqueue/job/data/repository"
	"github.com/ncobase/jobqueue/job/handlers"
	"github.com/ncobase/jobqueue/job/notifier"
	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/messaging/email"
)

func loadConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

func TestRootCommand(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "cleanup", "migrate", "version"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %s not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("conf") == nil {
		t.Error("--conf flag missing")
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), `"goVersion"`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestProvideRepository(t *testing.T) {
	repo, err := ProvideRepository(&config.Jobs{Store: config.StoreMemory}, &data.Data{})
	if err != nil || repo == nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, err := ProvideRepository(&config.Jobs{Store: config.StoreDatabase}, &data.Data{}); err == nil {
		t.Error("database store without a connection should fail")
	}
	if _, err := ProvideRepository(&config.Jobs{Store: config.StoreMongoDB}, &data.Data{}); err == nil {
		t.Error("mongodb store without a connection should fail")
	}
}

func TestProvideEvents(t *testing.T) {
	cfg := loadConfig(t, "jobs:\n  store: memory\n")

	e, cleanup, err := ProvideEvents(cfg.Notifier, &data.Data{}, nil)
	if err != nil {
		t.Fatalf("ProvideEvents: %v", err)
	}
	defer cleanup()
	if e.Bus == nil || e.Notifier == nil {
		t.Fatalf("expected the stream bus, got %+v", e)
	}

	cfg.Notifier.Stream = false
	e, cleanup2, err := ProvideEvents(cfg.Notifier, &data.Data{}, nil)
	if err != nil {
		t.Fatalf("ProvideEvents: %v", err)
	}
	defer cleanup2()
	if e.Bus != nil || ProvideNotifier(e) != nil {
		t.Errorf("no sinks should give a nil notifier, got %+v", e)
	}

	cfg.Notifier.Sinks = []string{config.SinkRedis}
	if _, _, err := ProvideEvents(cfg.Notifier, &data.Data{}, nil); err == nil {
		t.Error("redis sink without a connection should fail")
	}
}

func TestProvideHandlersMailer(t *testing.T) {
	jobs := &config.Jobs{HandlerTimeScale: 0}
	ctx := context.Background()
	j := structs.NewJob(&structs.JobRequest{
		JobType: structs.TypeEmailNotification,
		Payload: map[string]any{"recipient": "ops@example.com"},
	}, 0)

	res, err := ProvideHandlers(jobs, nil).EmailNotification(ctx, j)
	if err != nil || res["sent"] != true {
		t.Fatalf("simulated delivery = %v, %v", res, err)
	}

	var got string
	mailer := mailerFunc(func(_ context.Context, to string, _ email.Template) (string, error) {
		got = to
		return "sent-1", nil
	})
	res, err = ProvideHandlers(jobs, mailer).EmailNotification(ctx, j)
	if err != nil || res["message_id"] != "sent-1" || got != "ops@example.com" {
		t.Errorf("configured mailer: result=%v err=%v to=%q", res, err, got)
	}
}

type mailerFunc func(ctx context.Context, to string, tpl email.Template) (string, error)

func (f mailerFunc) SendTemplateEmail(ctx context.Context, to string, tpl email.Template) (string, error) {
	return f(ctx, to, tpl)
}

func TestProvideQueueConfig(t *testing.T) {
	q := ProvideQueueConfig(&config.Jobs{MaxWorkers: 6, DefaultMaxRetries: 2, RecoveryLimit: 10, Timeout: time.Minute})
	if q.MaxWorkers != 6 || q.DefaultMaxRetries != 2 || q.RecoveryLimit != 10 || q.Timeout != time.Minute {
		t.Errorf("queue config = %+v", q)
	}
}

func TestInitializeAppMemoryStore(t *testing.T) {
	cfg := loadConfig(t, "jobs:\n  store: memory\n  handler_time_scale: 0\n")

	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		t.Fatalf("InitializeApp: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := app.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := app.queue.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer app.queue.Stop(ctx)

	id, err := app.queue.Submit(ctx, &structs.JobRequest{
		JobType: structs.TypeEmailNotification,
		Payload: map[string]any{"recipient": "a@example.com"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		j, err := app.queue.Status(ctx, id)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if j.Status == structs.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s", j.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownLetsRunningJobFinish(t *testing.T) {
	cfg := loadConfig(t, "server:\n  mode: test\n  shutdown_timeout: 200ms\njobs:\n  store: memory\n  stop_timeout: 3s\n")

	slow := func(ctx context.Context, _ *structs.Job) (map[string]any, error) {
		select {
		case <-time.After(300 * time.Millisecond):
			return map[string]any{"migrated": true}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	set := &handlers.Set{
		BulkImport: slow, BulkExport: slow, DataMigration: slow,
		FileProcessing: slow, EmailNotification: slow, ReportGeneration: slow,
	}
	repo := repository.NewMemoryRepository()
	bus, _ := notifier.NewBus(8)
	q, err := job.NewQueue(repo, set, bus, &job.Config{MaxWorkers: 1}, nil)
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	ctx := context.Background()
	if err := q.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	app := NewApp(cfg, logger.StdLogger(), nil, repo, q, &Events{Bus: bus, Notifier: bus})

	srv := app.newServer()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()

	// an open event stream must not hold up shutdown
	res, err := http.Get("http://" + ln.Addr().String() + "/jobs/events")
	if err != nil {
		t.Fatalf("GET /jobs/events: %v", err)
	}
	defer res.Body.Close()
	streamDone := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, res.Body)
		close(streamDone)
	}()

	id, err := q.Submit(ctx, &structs.JobRequest{JobType: structs.TypeDataMigration})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for {
		j, _ := q.Status(ctx, id)
		if j.Status == structs.StatusRunning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s", j.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	app.shutdown(ctx, srv)

	select {
	case <-streamDone:
	case <-time.After(time.Second):
		t.Error("event stream still open after shutdown")
	}
	j, err := q.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if j.Status != structs.StatusCompleted {
		t.Errorf("in-flight job after shutdown: status=%s error=%v", j.Status, j.ErrorMessage)
	}
}

func TestStoreCleanupRejectsNegativeDays(t *testing.T) {
	repo, _ := ProvideRepository(&config.Jobs{Store: config.StoreMemory}, &data.Data{})
	s := NewStore(repo, nil)
	if _, err := s.Cleanup(context.Background(), -1); err == nil {
		t.Fatal("expected error")
	}
}
