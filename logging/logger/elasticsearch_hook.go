package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// ElasticsearchHook ships log entries to Elasticsearch
type ElasticsearchHook struct {
	client *elasticsearch.Client
	config *config.Config
}

// NewElasticsearchHook connects to the configured cluster
func NewElasticsearchHook(cfg *config.Config) (*ElasticsearchHook, error) {
	es := cfg.Elasticsearch
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: es.Addresses,
		Username:  es.Username,
		Password:  es.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch connection error: %s", res.Status())
	}

	return &ElasticsearchHook{client: client, config: cfg}, nil
}

func (h *ElasticsearchHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *ElasticsearchHook) Fire(entry *logrus.Entry) error {
	body, err := json.Marshal(searchDocument(entry))
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	index := h.config.BuildIndexName(entry.Time)

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	opts := []func(*esapi.IndexRequest){h.client.Index.WithContext(ctx)}
	if isDataStream(index) {
		// data streams only accept create
		opts = append(opts, h.client.Index.WithOpType("create"))
	}
	res, err := h.client.Index(index, bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", res.Status())
	}
	return nil
}

func isDataStream(index string) bool {
	index = strings.ToLower(index)
	for _, prefix := range []string{"logs-", "metrics-", "traces-"} {
		if strings.HasPrefix(index, prefix) {
			return true
		}
	}
	return false
}
