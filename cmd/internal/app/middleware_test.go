package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequestLogging(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status     int
		wantLevel  string
		wantResult string
		wantClass  string
	}{
		{status: 200, wantLevel: "DEBUG", wantResult: "success", wantClass: "2xx"},
		{status: 404, wantLevel: "WARN", wantResult: "client_error", wantClass: "4xx"},
		{status: 503, wantLevel: "ERROR", wantResult: "server_error", wantClass: "5xx"},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		h := WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("body"))
		}), log)

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("status=%d: decode log: %v (%q)", tc.status, err, buf.String())
		}
		if rec["level"] != tc.wantLevel || rec["result"] != tc.wantResult || rec["status_class"] != tc.wantClass {
			t.Fatalf("status=%d record=%v", tc.status, rec)
		}
		if rec["bytes"] != float64(4) || rec["path"] != "/metrics" {
			t.Fatalf("status=%d record=%v", tc.status, rec)
		}
	}
}

func TestLoggingResponseWriter_Flush(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	w := &loggingResponseWriter{ResponseWriter: rr, status: http.StatusOK}
	_, _ = w.Write([]byte(strings.Repeat("x", 10)))
	w.Flush()

	if !rr.Flushed {
		t.Fatalf("flush was not forwarded")
	}
	if w.Unwrap() != rr {
		t.Fatalf("unwrap mismatch")
	}
}
