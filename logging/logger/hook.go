package logger

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryHook forwards error level entries to Sentry
type SentryHook struct {
	levels []logrus.Level
}

// NewSentryHook creates a hook for error, fatal and panic entries. The Sentry
// client must be initialised separately.
func NewSentryHook() *SentryHook {
	return &SentryHook{levels: []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}}
}

func (h *SentryHook) Levels() []logrus.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Message = entry.Message
	event.Timestamp = entry.Time
	event.Level = sentry.LevelError
	if entry.Level < logrus.ErrorLevel {
		event.Level = sentry.LevelFatal
	}
	for k, v := range entry.Data {
		event.Extra[k] = v
	}
	if traceID, ok := entry.Data[traceKey].(string); ok {
		event.Tags[traceKey] = traceID
	}
	sentry.CaptureEvent(event)
	return nil
}
