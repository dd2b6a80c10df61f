package logger

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/meilisearch/meilisearch-go"
	"github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// MeilisearchHook ships log entries to Meilisearch
type MeilisearchHook struct {
	client meilisearch.ServiceManager
	config *config.Config
	seq    atomic.Uint64
}

// NewMeilisearchHook connects to the configured instance
func NewMeilisearchHook(cfg *config.Config) (*MeilisearchHook, error) {
	client := meilisearch.New(cfg.Meilisearch.Host, meilisearch.WithAPIKey(cfg.Meilisearch.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("connect to meilisearch: %w", err)
	}
	return &MeilisearchHook{client: client, config: cfg}, nil
}

func (h *MeilisearchHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *MeilisearchHook) Fire(entry *logrus.Entry) error {
	doc := searchDocument(entry)
	doc["id"] = strconv.FormatInt(entry.Time.UnixNano(), 36) + "-" + strconv.FormatUint(h.seq.Add(1), 36)

	pk := "id"
	index := h.client.Index(h.config.BuildIndexName(entry.Time))
	if _, err := index.AddDocuments([]map[string]any{doc}, &pk); err != nil {
		return fmt.Errorf("meilisearch add documents: %w", err)
	}
	return nil
}
