package logger

import (
	"regexp"
	"strings"

	"github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/sirupsen/logrus"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// maxDepth bounds recursion into nested payload maps
const maxDepth = 8

// Desensitizer masks sensitive data in log fields
type Desensitizer struct {
	fields     []string
	mask       string
	maskEmails bool
}

// NewDesensitizer creates a new desensitizer instance
func NewDesensitizer(cfg *config.Desensitization) *Desensitizer {
	d := &Desensitizer{maskEmails: cfg.MaskEmails}
	for _, f := range cfg.SensitiveFields {
		d.fields = append(d.fields, strings.ToLower(f))
	}
	char, n := cfg.MaskChar, cfg.MaskLength
	if char == "" {
		char = "*"
	}
	if n <= 0 {
		n = 6
	}
	d.mask = strings.Repeat(char, n)
	return d
}

// DesensitizeFields returns a copy of fields with sensitive values masked
func (d *Desensitizer) DesensitizeFields(fields logrus.Fields) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for k, v := range fields {
		out[k] = d.value(k, v, 0)
	}
	return out
}

// Desensitize masks a single value, descending into maps and slices
func (d *Desensitizer) Desensitize(v any) any {
	return d.value("", v, 0)
}

func (d *Desensitizer) value(key string, v any, depth int) any {
	if v == nil || depth > maxDepth {
		return v
	}
	if d.isSensitive(key) {
		return d.mask
	}

	switch val := v.(type) {
	case string:
		if d.maskEmails {
			return emailPattern.ReplaceAllString(val, d.mask)
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = d.value(k, item, depth+1)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = d.value("", item, depth+1)
		}
		return out
	default:
		return v
	}
}

func (d *Desensitizer) isSensitive(key string) bool {
	if key == "" {
		return false
	}
	key = strings.ToLower(key)
	for _, f := range d.fields {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}
