package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// hookTimeout bounds the connection check and each shipped entry
const hookTimeout = 5 * time.Second

// initSearchHooks adds a hook for every search backend configured
func (l *Logger) initSearchHooks(cfg *config.Config) error {
	if cfg.Elasticsearch != nil && len(cfg.Elasticsearch.Addresses) > 0 {
		hook, err := NewElasticsearchHook(cfg)
		if err != nil {
			return fmt.Errorf("logger: elasticsearch hook: %w", err)
		}
		l.AddHook(hook)
	}
	if cfg.OpenSearch != nil && len(cfg.OpenSearch.Addresses) > 0 {
		hook, err := NewOpenSearchHook(cfg)
		if err != nil {
			return fmt.Errorf("logger: opensearch hook: %w", err)
		}
		l.AddHook(hook)
	}
	if cfg.Meilisearch != nil && cfg.Meilisearch.Host != "" {
		hook, err := NewMeilisearchHook(cfg)
		if err != nil {
			return fmt.Errorf("logger: meilisearch hook: %w", err)
		}
		l.AddHook(hook)
	}
	return nil
}

// searchDocument is the indexed form of a log entry. Fields were already
// masked when the entry was built.
func searchDocument(entry *logrus.Entry) map[string]any {
	doc := make(map[string]any, len(entry.Data)+4)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		doc[k] = v
	}
	doc["@timestamp"] = entry.Time.UTC().Format(time.RFC3339Nano)
	doc["level"] = entry.Level.String()
	doc["message"] = entry.Message
	if hostname, err := os.Hostname(); err == nil {
		doc["hostname"] = hostname
	}
	return doc
}
