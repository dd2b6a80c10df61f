package ctxutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnsureTraceID(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	if id == "" {
		t.Fatal("expected generated trace id")
	}
	if got := GetTraceID(ctx); got != id {
		t.Errorf("GetTraceID = %q, want %q", got, id)
	}

	_, again := EnsureTraceID(ctx)
	if again != id {
		t.Errorf("EnsureTraceID regenerated id: %q != %q", again, id)
	}
}

func TestTraceMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Trace())

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetTraceID(FromGinContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "abc" {
		t.Errorf("trace id in handler = %q, want abc", seen)
	}
	if w.Header().Get(TraceIDHeader) != "abc" {
		t.Errorf("response header = %q, want abc", w.Header().Get(TraceIDHeader))
	}
}
