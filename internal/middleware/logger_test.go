package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/jobs?type=ALL", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("status field = %v, want %d", fields["status"], http.StatusTeapot)
	}
	if fields["size"] != int64(5) {
		t.Fatalf("size field = %v, want 5", fields["size"])
	}
	if fields["uri"] != "/api/jobs?type=ALL" {
		t.Fatalf("uri field = %v", fields["uri"])
	}
}
