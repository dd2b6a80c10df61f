package logger

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ncobase/jobqueue/logging/logger/config"
	"github.com/sirupsen/logrus"
)

type indexedDoc struct {
	path string
	body map[string]any
}

// searchServer records documents POSTed or PUT to it and answers
// everything else with info.
func searchServer(t *testing.T, header http.Header, info string, indexStatus int, indexResp string) (*httptest.Server, func() []indexedDoc) {
	t.Helper()
	var (
		mu   sync.Mutex
		docs []indexedDoc
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, info)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var body any
		_ = json.Unmarshal(raw, &body)
		doc, _ := body.(map[string]any)
		if list, ok := body.([]any); ok && len(list) > 0 {
			doc, _ = list[0].(map[string]any)
		}
		mu.Lock()
		docs = append(docs, indexedDoc{path: r.URL.Path, body: doc})
		mu.Unlock()
		w.WriteHeader(indexStatus)
		_, _ = io.WriteString(w, indexResp)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []indexedDoc {
		mu.Lock()
		defer mu.Unlock()
		return append([]indexedDoc(nil), docs...)
	}
}

func testEntry() *logrus.Entry {
	entry := logrus.NewEntry(logrus.New())
	entry.Time = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = "Job failed"
	entry.Data = logrus.Fields{"job_id": "abc"}
	return entry
}

func checkShipped(t *testing.T, docs []indexedDoc, wantPath string) {
	t.Helper()
	if len(docs) != 1 {
		t.Fatalf("indexed %d documents, want 1", len(docs))
	}
	if !strings.HasPrefix(docs[0].path, wantPath) {
		t.Errorf("path = %q, want prefix %q", docs[0].path, wantPath)
	}
	doc := docs[0].body
	if doc["message"] != "Job failed" || doc["level"] != "warning" || doc["job_id"] != "abc" {
		t.Errorf("document = %v", doc)
	}
	if doc["@timestamp"] != "2025-03-04T10:00:00Z" {
		t.Errorf("@timestamp = %v", doc["@timestamp"])
	}
}

func TestElasticsearchHook(t *testing.T) {
	header := http.Header{"X-Elastic-Product": []string{"Elasticsearch"}}
	info := `{"name":"node-1","cluster_name":"test","version":{"number":"8.19.1"},"tagline":"You Know, for Search"}`
	srv, docs := searchServer(t, header, info, http.StatusCreated,
		`{"_index":"jobqueue-log-2025.03.04","_id":"1","result":"created"}`)

	cfg := &config.Config{
		IndexName:       "jobqueue-log",
		IndexDateSuffix: "2006.01.02",
		Elasticsearch:   &config.Elasticsearch{Addresses: []string{srv.URL}},
	}
	hook, err := NewElasticsearchHook(cfg)
	if err != nil {
		t.Fatalf("NewElasticsearchHook: %v", err)
	}
	if err := hook.Fire(testEntry()); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	checkShipped(t, docs(), "/jobqueue-log-2025.03.04/_doc")
}

func TestElasticsearchHookUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	cfg := &config.Config{Elasticsearch: &config.Elasticsearch{Addresses: []string{srv.URL}}}
	if _, err := NewElasticsearchHook(cfg); err == nil {
		t.Fatal("expected a connection error")
	}
}

func TestOpenSearchHook(t *testing.T) {
	info := `{"name":"node-1","cluster_name":"test","cluster_uuid":"u","version":{"distribution":"opensearch","number":"2.17.0"},"tagline":"The OpenSearch Project"}`
	srv, docs := searchServer(t, nil, info, http.StatusCreated,
		`{"_index":"jobs","_id":"1","_version":1,"result":"created","_shards":{"total":1,"successful":1,"failed":0},"_seq_no":0,"_primary_term":1}`)

	cfg := &config.Config{
		IndexName:  "jobs",
		OpenSearch: &config.OpenSearch{Addresses: []string{srv.URL}},
	}
	hook, err := NewOpenSearchHook(cfg)
	if err != nil {
		t.Fatalf("NewOpenSearchHook: %v", err)
	}
	if err := hook.Fire(testEntry()); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	checkShipped(t, docs(), "/jobs/_doc")
}

func TestMeilisearchHook(t *testing.T) {
	srv, docs := searchServer(t, nil, `{"status":"available"}`, http.StatusAccepted,
		`{"taskUid":1,"indexUid":"jobs","status":"enqueued","type":"documentAdditionOrUpdate","enqueuedAt":"2025-03-04T10:00:00Z"}`)

	cfg := &config.Config{
		IndexName:   "jobs",
		Meilisearch: &config.Meilisearch{Host: srv.URL, APIKey: "key"},
	}
	hook, err := NewMeilisearchHook(cfg)
	if err != nil {
		t.Fatalf("NewMeilisearchHook: %v", err)
	}
	if err := hook.Fire(testEntry()); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	got := docs()
	checkShipped(t, got, "/indexes/jobs/documents")
	if id, _ := got[0].body["id"].(string); id == "" {
		t.Error("document has no id")
	}
}

func TestInitSkipsUnconfiguredSearchHooks(t *testing.T) {
	l, cleanup, err := NewLogger(&config.Config{Level: 4, Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer cleanup()
	for _, hooks := range l.Hooks {
		if len(hooks) != 0 {
			t.Fatalf("hooks installed without search config: %v", l.Hooks)
		}
	}
}

func TestInitFailsOnUnreachableSearchBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	_, _, err := NewLogger(&config.Config{
		Level:       4,
		Meilisearch: &config.Meilisearch{Host: srv.URL},
	})
	if err == nil {
		t.Fatal("expected an error for an unreachable meilisearch")
	}
}

func TestIsDataStream(t *testing.T) {
	if !isDataStream("logs-jobqueue") || isDataStream("jobqueue-log") {
		t.Error("data stream detection is wrong")
	}
}
