// Package logger provides the process logger: logrus underneath, context
// aware, with key/value fields and masking of sensitive values.
//
//	logger.Info(ctx, "Job submitted", "job_id", id, "job_type", t)
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// VersionKey is the field carrying the application version
const VersionKey = "version"

// Logger wraps logrus with context-first helpers
type Logger struct {
	*logrus.Logger
	version      string
	desensitizer *Desensitizer

	mu      sync.Mutex
	logFile *os.File
	logPath string
	stop    chan struct{}
}

var (
	std     *Logger
	stdOnce sync.Once
)

// StdLogger returns the process-wide logger instance
func StdLogger() *Logger {
	stdOnce.Do(func() {
		std = &Logger{Logger: logrus.New()}
		std.SetFormatter(&logrus.JSONFormatter{})
	})
	return std
}

// New configures the standard logger and returns its cleanup function
func New(cfg *config.Config) (func(), error) {
	return StdLogger().Init(cfg)
}

// NewLogger builds an independent logger, mostly useful in tests
func NewLogger(cfg *config.Config) (*Logger, func(), error) {
	l := &Logger{Logger: logrus.New()}
	cleanup, err := l.Init(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, cleanup, nil
}

// Init applies cfg to the logger
func (l *Logger) Init(cfg *config.Config) (func(), error) {
	if cfg == nil {
		return func() {}, nil
	}

	l.SetLevel(logrus.Level(cfg.Level))
	l.version = cfg.Version

	switch cfg.Format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	switch cfg.Output {
	case "stderr":
		l.SetOutput(os.Stderr)
	case "file":
		if cfg.OutputFile == "" {
			return nil, errors.New("logger: output_file is required for file output")
		}
		l.logPath = cfg.OutputFile
		if err := l.setupLogFile(); err != nil {
			return nil, err
		}
		l.stop = make(chan struct{})
		go l.periodicLogRotation()
	default:
		l.SetOutput(os.Stdout)
	}

	if cfg.Desensitization != nil && cfg.Desensitization.Enabled {
		l.desensitizer = NewDesensitizer(cfg.Desensitization)
	}

	if cfg.Sentry {
		l.AddHook(NewSentryHook())
	}

	if err := l.initSearchHooks(cfg); err != nil {
		l.close()
		return nil, err
	}

	return l.close, nil
}

func (l *Logger) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
	if l.logFile != nil {
		_ = l.logFile.Close()
		l.logFile = nil
		l.SetOutput(io.Discard)
	}
}

func (l *Logger) setupLogFile() error {
	if err := os.MkdirAll(filepath.Dir(l.logPath), 0o755); err != nil {
		return fmt.Errorf("logger: create log dir: %w", err)
	}
	return l.rotateLog()
}

func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := fmt.Sprintf("%s.%s.log", strings.TrimSuffix(l.logPath, ".log"), time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(name, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("logger: open log file: %w", err)
	}
	if l.logFile != nil {
		_ = l.logFile.Close()
	}
	l.logFile = f
	l.SetOutput(f)
	return nil
}

func (l *Logger) periodicLogRotation() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.rotateLog(); err != nil {
				l.Logger.Errorf("Error rotating log: %v", err)
			}
		case <-l.stop:
			return
		}
	}
}

// entry builds a log entry carrying the trace id, version and kv fields
func (l *Logger) entry(ctx context.Context, kv ...any) *logrus.Entry {
	fields := logrus.Fields{}
	if traceID := getTraceID(ctx); traceID != "" {
		fields[traceKey] = traceID
	}
	if l.version != "" {
		fields[VersionKey] = l.version
	}

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			fields["!BADKEY"] = key
			break
		}
		val := kv[i+1]
		if err, ok := val.(error); ok && err != nil {
			val = err.Error()
		}
		fields[key] = val
	}

	if l.desensitizer != nil {
		fields = l.desensitizer.DesensitizeFields(fields)
	}
	return l.WithContext(ctx).WithFields(fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv...).Debug(msg)
}
func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv...).Info(msg)
}
func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv...).Warn(msg)
}
func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv...).Error(msg)
}

func (l *Logger) Debugf(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Debugf(format, args...)
}
func (l *Logger) Infof(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Infof(format, args...)
}
func (l *Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Warnf(format, args...)
}
func (l *Logger) Errorf(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Errorf(format, args...)
}
func (l *Logger) Fatalf(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Fatalf(format, args...)
}

// Package level helpers write through StdLogger.

func Debug(ctx context.Context, msg string, kv ...any) { StdLogger().Debug(ctx, msg, kv...) }
func Info(ctx context.Context, msg string, kv ...any)  { StdLogger().Info(ctx, msg, kv...) }
func Warn(ctx context.Context, msg string, kv ...any)  { StdLogger().Warn(ctx, msg, kv...) }
func Error(ctx context.Context, msg string, kv ...any) { StdLogger().Error(ctx, msg, kv...) }

func Infof(ctx context.Context, format string, args ...any) {
	StdLogger().Infof(ctx, format, args...)
}
func Errorf(ctx context.Context, format string, args ...any) {
	StdLogger().Errorf(ctx, format, args...)
}
func Fatalf(ctx context.Context, format string, args ...any) {
	StdLogger().Fatalf(ctx, format, args...)
}
