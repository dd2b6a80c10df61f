package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func readYAML(t *testing.T, content string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	return v
}

func TestGetConfigIndexDefaults(t *testing.T) {
	cfg := GetConfig(readYAML(t, "app_name: JobQueue\n"))
	if cfg.IndexName != "jobqueue-log" || cfg.IndexDateSuffix != "2006.01.02" {
		t.Errorf("index = %q suffix = %q", cfg.IndexName, cfg.IndexDateSuffix)
	}
	if cfg.Elasticsearch != nil || cfg.OpenSearch != nil || cfg.Meilisearch != nil {
		t.Errorf("search backends set without config: %+v", cfg)
	}

	at := time.Date(2025, 3, 4, 23, 0, 0, 0, time.UTC)
	if got := cfg.BuildIndexName(at); got != "jobqueue-log-2025.03.04" {
		t.Errorf("BuildIndexName = %q", got)
	}
}

func TestGetConfigSearchBackends(t *testing.T) {
	cfg := GetConfig(readYAML(t, `
logger:
  index_name: jobs
  index_date_suffix: ""
  elasticsearch:
    addresses: ["http://es:9200"]
    username: elastic
  opensearch:
    addresses: ["https://os:9200"]
    insecure_skip_tls: true
  meilisearch:
    host: http://meili:7700
    api_key: key
`))
	if got := cfg.BuildIndexName(time.Now()); got != "jobs" {
		t.Errorf("BuildIndexName = %q, want jobs", got)
	}
	if cfg.Elasticsearch == nil || cfg.Elasticsearch.Addresses[0] != "http://es:9200" || cfg.Elasticsearch.Username != "elastic" {
		t.Errorf("elasticsearch = %+v", cfg.Elasticsearch)
	}
	if cfg.OpenSearch == nil || !cfg.OpenSearch.InsecureSkipTLS {
		t.Errorf("opensearch = %+v", cfg.OpenSearch)
	}
	if cfg.Meilisearch == nil || cfg.Meilisearch.Host != "http://meili:7700" || cfg.Meilisearch.APIKey != "key" {
		t.Errorf("meilisearch = %+v", cfg.Meilisearch)
	}
}
