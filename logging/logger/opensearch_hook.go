package logger

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/sirupsen/logrus"
)

// OpenSearchHook ships log entries to OpenSearch
type OpenSearchHook struct {
	client *opensearchapi.Client
	config *config.Config
}

// NewOpenSearchHook connects to the configured cluster
func NewOpenSearchHook(cfg *config.Config) (*OpenSearchHook, error) {
	oc := cfg.OpenSearch
	clientCfg := opensearch.Config{
		Addresses: oc.Addresses,
		Username:  oc.Username,
		Password:  oc.Password,
	}
	if oc.InsecureSkipTLS {
		clientCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	client, err := opensearchapi.NewClient(opensearchapi.Config{Client: clientCfg})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if _, err := client.Info(ctx, nil); err != nil {
		return nil, fmt.Errorf("connect to opensearch: %w", err)
	}

	return &OpenSearchHook{client: client, config: cfg}, nil
}

func (h *OpenSearchHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *OpenSearchHook) Fire(entry *logrus.Entry) error {
	body, err := json.Marshal(searchDocument(entry))
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	_, err = h.client.Index(ctx, opensearchapi.IndexReq{
		Index: h.config.BuildIndexName(entry.Time),
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("opensearch index: %w", err)
	}
	return nil
}
