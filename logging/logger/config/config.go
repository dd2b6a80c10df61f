package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config configuration struct
type Config struct {
	Level           int              `json:"level" yaml:"level"`
	Format          string           `json:"format" yaml:"format"`
	Output          string           `json:"output" yaml:"output"`
	OutputFile      string           `json:"output_file" yaml:"output_file"`
	Version         string           `json:"version" yaml:"version"`
	Sentry          bool             `json:"sentry" yaml:"sentry"`
	Desensitization *Desensitization `json:"desensitization" yaml:"desensitization"`
	// IndexName is the search index log entries are shipped to
	IndexName string `json:"index_name" yaml:"index_name"`
	// IndexDateSuffix is a time layout appended to IndexName; empty keeps one index
	IndexDateSuffix string         `json:"index_date_suffix" yaml:"index_date_suffix"`
	Elasticsearch   *Elasticsearch `json:"elasticsearch" yaml:"elasticsearch"`
	OpenSearch      *OpenSearch    `json:"opensearch" yaml:"opensearch"`
	Meilisearch     *Meilisearch   `json:"meilisearch" yaml:"meilisearch"`
}

// Desensitization holds log field masking settings
type Desensitization struct {
	Enabled         bool     `json:"enabled" yaml:"enabled"`
	SensitiveFields []string `json:"sensitive_fields" yaml:"sensitive_fields"`
	MaskChar        string   `json:"mask_char" yaml:"mask_char"`
	MaskLength      int      `json:"mask_length" yaml:"mask_length"`
	MaskEmails      bool     `json:"mask_emails" yaml:"mask_emails"`
}

// DefaultSensitiveFields are masked when no list is configured. Recipient
// addresses in notification payloads are covered by "recipient" and "email".
var DefaultSensitiveFields = []string{
	"password", "secret", "token", "api_key", "recipient", "email",
}

// DefaultDesensitization returns masking enabled with the default field list.
func DefaultDesensitization() *Desensitization {
	return &Desensitization{
		Enabled:         true,
		SensitiveFields: DefaultSensitiveFields,
		MaskChar:        "*",
		MaskLength:      6,
		MaskEmails:      true,
	}
}

// GetConfig returns the logger configuration
func GetConfig(v *viper.Viper) *Config {
	level := 4 // info
	if v.IsSet("logger.level") {
		level = v.GetInt("logger.level")
	}

	indexName := strings.ToLower(v.GetString("app_name") + "-log")
	if n := v.GetString("logger.index_name"); n != "" {
		indexName = n
	}
	suffix := "2006.01.02"
	if v.IsSet("logger.index_date_suffix") {
		suffix = v.GetString("logger.index_date_suffix")
	}

	return &Config{
		Level:           level,
		Format:          v.GetString("logger.format"),
		Output:          v.GetString("logger.output"),
		OutputFile:      v.GetString("logger.output_file"),
		Version:         v.GetString("version"),
		Sentry:          v.GetString("observes.sentry.endpoint") != "",
		Desensitization: getDesensitization(v),
		IndexName:       indexName,
		IndexDateSuffix: suffix,
		Elasticsearch:   getElasticsearchConfig(v),
		OpenSearch:      getOpenSearchConfig(v),
		Meilisearch:     getMeilisearchConfig(v),
	}
}

// BuildIndexName returns the index for an entry logged at t
func (c *Config) BuildIndexName(t time.Time) string {
	name := c.IndexName
	if name == "" {
		name = "jobqueue-log"
	}
	if c.IndexDateSuffix == "" {
		return name
	}
	return name + "-" + t.UTC().Format(c.IndexDateSuffix)
}

func getDesensitization(v *viper.Viper) *Desensitization {
	d := DefaultDesensitization()
	if !v.IsSet("logger.desensitization") {
		return d
	}

	d.Enabled = v.GetBool("logger.desensitization.enabled")
	if fields := v.GetStringSlice("logger.desensitization.sensitive_fields"); len(fields) > 0 {
		d.SensitiveFields = fields
	}
	if c := v.GetString("logger.desensitization.mask_char"); c != "" {
		d.MaskChar = c
	}
	if n := v.GetInt("logger.desensitization.mask_length"); n > 0 {
		d.MaskLength = n
	}
	if v.IsSet("logger.desensitization.mask_emails") {
		d.MaskEmails = v.GetBool("logger.desensitization.mask_emails")
	}
	return d
}
