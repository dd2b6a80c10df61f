package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "app_name: jobs-test\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AppName != "jobs-test" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
	j := cfg.Jobs
	if j.MaxWorkers != 4 || j.DefaultMaxRetries != 3 || j.RecoveryLimit != 0 {
		t.Errorf("jobs defaults = %+v", j)
	}
	if j.Timeout != 0 || j.StopTimeout != 30*time.Second || j.CleanupDays != 30 || j.HandlerTimeScale != 1.0 || j.Store != StoreDatabase {
		t.Errorf("jobs defaults = %+v", j)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" || cfg.Server.Mode != "release" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Data.Database.Master.Driver != "sqlite" {
		t.Errorf("database driver = %q", cfg.Data.Database.Master.Driver)
	}
	if !cfg.Notifier.Stream || cfg.Notifier.BufferSize != 1024 || len(cfg.Notifier.Sinks) != 0 {
		t.Errorf("notifier = %+v", cfg.Notifier)
	}
	if cfg.Notifier.Breaker.ConsecutiveFailures != 5 || cfg.Notifier.Breaker.OpenTimeout != 30*time.Second {
		t.Errorf("breaker = %+v", cfg.Notifier.Breaker)
	}
	if cfg.Observes.Tracer.ServiceName != "jobs-test" {
		t.Errorf("tracer service name = %q", cfg.Observes.Tracer.ServiceName)
	}
}

func TestLoadConfigFile(t *testing.T) {
	p := writeConfig(t, `
app_name: jobqueue
server:
  port: 9090
  mode: test
jobs:
  max_workers: 8
  default_max_retries: 5
  timeout: 2m
  store: memory
notifier:
  sinks: [redis]
  redis:
    channel: events
data:
  redis:
    addr: localhost:6379
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Jobs.MaxWorkers != 8 || cfg.Jobs.DefaultMaxRetries != 5 {
		t.Errorf("unexpected values: server=%+v jobs=%+v", cfg.Server, cfg.Jobs)
	}
	if cfg.Jobs.Timeout != 2*time.Minute || cfg.Jobs.Store != StoreMemory {
		t.Errorf("jobs = %+v", cfg.Jobs)
	}
	if !cfg.Notifier.HasSink(SinkRedis) || cfg.Notifier.HasSink(SinkKafka) {
		t.Errorf("sinks = %v", cfg.Notifier.Sinks)
	}
	if cfg.Notifier.Redis.Channel != "events" {
		t.Errorf("channel = %q", cfg.Notifier.Redis.Channel)
	}

	got, err := GetConfig()
	if err != nil || got != cfg {
		t.Errorf("GetConfig returned %p, %v; want the loaded config", got, err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("JOBQUEUE_JOBS_MAX_WORKERS", "12")
	t.Setenv("JOBQUEUE_SERVER_PORT", "7000")

	cfg, err := LoadConfig(writeConfig(t, "jobs:\n  max_workers: 2\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Jobs.MaxWorkers != 12 {
		t.Errorf("MaxWorkers = %d, want 12", cfg.Jobs.MaxWorkers)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Server.Port)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"zero workers", "jobs:\n  max_workers: 0\n", "MaxWorkers"},
		{"negative retries", "jobs:\n  default_max_retries: -1\n", "DefaultMaxRetries"},
		{"unknown store", "jobs:\n  store: cassandra\n", "Store"},
		{"unknown sink", "notifier:\n  sinks: [nats]\n", "Sinks"},
		{"mongodb without uri", "jobs:\n  store: mongodb\n", "data.mongodb.uri"},
		{"kafka without brokers", "notifier:\n  sinks: [kafka]\n", "data.kafka.brokers"},
		{"bad mode", "server:\n  mode: fast\n", "Mode"},
		{"zero stop timeout", "jobs:\n  stop_timeout: 0s\n", "StopTimeout"},
		{"unknown email provider", "email:\n  provider: pigeon\n", "Provider"},
		{"mailgun without credentials", "email:\n  provider: mailgun\n", "email.mailgun"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigEmail(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
email:
  provider: sendgrid
  sendgrid:
    key: sg-key
    from: jobs@example.com
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Email.Provider != "sendgrid" || cfg.Email.SendGrid.Key != "sg-key" || cfg.Email.SendGrid.From != "jobs@example.com" {
		t.Errorf("email = %+v", cfg.Email)
	}
	if cfg.Email.SMTP.SMTPPort != "25" {
		t.Errorf("smtp port default = %q", cfg.Email.SMTP.SMTPPort)
	}
	if ProvideEmailConfig(cfg) != cfg.Email {
		t.Error("ProvideEmailConfig should return the email section")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestProviders(t *testing.T) {
	if ProvideJobsConfig(nil) != nil || ProvideServerConfig(nil) != nil {
		t.Fatal("providers should return nil for a nil config")
	}
	cfg := &Config{Jobs: &Jobs{MaxWorkers: 1}, Notifier: &Notifier{}}
	if ProvideJobsConfig(cfg) != cfg.Jobs || ProvideNotifierConfig(cfg) != cfg.Notifier {
		t.Fatal("providers should return the config sections")
	}
}
