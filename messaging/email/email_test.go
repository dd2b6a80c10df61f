package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewSenderValidates(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"mailgun", &MailgunConfig{Key: "k", Domain: "mg.example.com", From: "jobs@example.com"}, true},
		{"mailgun without domain", &MailgunConfig{Key: "k", From: "jobs@example.com"}, false},
		{"sendgrid", &SendGridConfig{Key: "k", From: "jobs@example.com"}, true},
		{"sendgrid without key", &SendGridConfig{From: "jobs@example.com"}, false},
		{"smtp", &SMTPConfig{SMTPHost: "localhost", SMTPPort: "25", From: "jobs@example.com"}, true},
		{"smtp without port", &SMTPConfig{SMTPHost: "localhost", From: "jobs@example.com"}, false},
		{"nil mailgun", (*MailgunConfig)(nil), false},
		{"unknown", "smtp://localhost", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSender(tc.cfg)
			if tc.ok && (err != nil || s == nil) {
				t.Fatalf("NewSender = %v, %v", s, err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestProvideSender(t *testing.T) {
	if s, err := ProvideSender(nil); s != nil || err != nil {
		t.Errorf("nil config = %v, %v", s, err)
	}
	if s, err := ProvideSender(&Email{}); s != nil || err != nil {
		t.Errorf("no provider = %v, %v", s, err)
	}
	if _, err := ProvideSender(&Email{Provider: ProviderMailgun}); err == nil {
		t.Error("mailgun without settings should fail")
	}

	s, err := ProvideSender(&Email{
		Provider: ProviderSendGrid,
		SendGrid: &SendGridConfig{Key: "k", From: "jobs@example.com"},
	})
	if err != nil {
		t.Fatalf("ProvideSender: %v", err)
	}
	if _, ok := s.(*SendGridSender); !ok {
		t.Errorf("sender = %T", s)
	}
}

func TestSendGridSender(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sg-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("X-Message-Id", "sg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := &SendGridSender{Config: &SendGridConfig{Key: "sg-key", From: "jobs@example.com", Endpoint: srv.URL + "/v3/mail/send"}}
	id, err := s.SendTemplateEmail(context.Background(), "ops@example.com", Template{Subject: "Export ready", Body: "done"})
	if err != nil {
		t.Fatalf("SendTemplateEmail: %v", err)
	}
	if id != "sg-123" {
		t.Errorf("message id = %q", id)
	}
	if body["subject"] != "Export ready" {
		t.Errorf("subject = %v", body["subject"])
	}

	// a template goes out with its data on the personalization
	_, err = s.SendTemplateEmail(context.Background(), "ops@example.com", Template{
		Subject:   "Export ready",
		Template:  "d-export",
		Variables: map[string]any{"rows": 12},
	})
	if err != nil {
		t.Fatalf("SendTemplateEmail: %v", err)
	}
	if body["template_id"] != "d-export" {
		t.Errorf("template_id = %v", body["template_id"])
	}
	p, _ := body["personalizations"].([]any)
	if len(p) != 1 || !strings.Contains(toJSON(t, p[0]), `"rows":12`) {
		t.Errorf("personalizations = %v", body["personalizations"])
	}
}

func TestSendGridSenderRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := &SendGridSender{Config: &SendGridConfig{Key: "bad", From: "jobs@example.com", Endpoint: srv.URL}}
	if _, err := s.SendTemplateEmail(context.Background(), "ops@example.com", Template{Subject: "x", Body: "y"}); err == nil {
		t.Fatal("expected error for a rejected request")
	}
}

func TestMailgunSender(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// url encoded or multipart, both land in r.Form
		_ = r.ParseMultipartForm(1 << 20)
		form = r.Form
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<20260101.1@mg.example.com>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	s := &MailgunSender{Config: &MailgunConfig{Key: "mg-key", Domain: "mg.example.com", From: "jobs@example.com", APIBase: srv.URL}}
	id, err := s.SendTemplateEmail(context.Background(), "ops@example.com", Template{
		Subject:   "Report ready",
		Template:  "report-ready",
		Variables: map[string]any{"report": "sales"},
	})
	if err != nil {
		t.Fatalf("SendTemplateEmail: %v", err)
	}
	if id != "<20260101.1@mg.example.com>" {
		t.Errorf("message id = %q", id)
	}
	if got := form["to"]; len(got) != 1 || got[0] != "ops@example.com" {
		t.Errorf("to = %v", got)
	}
	if got := form["template"]; len(got) != 1 || got[0] != "report-ready" {
		t.Errorf("template = %v", got)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("jobs@example.com", "ops@example.com", "<1@localhost>", Template{Subject: "Hi", Body: "body"}))
	for _, want := range []string{"To: ops@example.com\r\n", "Subject: Hi\r\n", "Message-ID: <1@localhost>\r\n", "\r\n\r\nbody"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
