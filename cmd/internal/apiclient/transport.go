package apiclient

import (
	"log/slog"
	"net/http"
	"time"

	"telecall/cmd/internal/httplog"
	"telecall/cmd/internal/ids"
)

const requestIDHeader = "X-Request-ID"

// loggingTransport stamps a request id on every outbound request and logs the
// round trip. It sits under the cookie jar, so it sees both regular sends and
// refresh calls.
type loggingTransport struct {
	next    http.RoundTripper
	log     *slog.Logger
	metrics *Metrics
}

func newLoggingTransport(next http.RoundTripper, log *slog.Logger, m *Metrics) *loggingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, log: log, metrics: m}
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	reqID := r.Header.Get(requestIDHeader)
	if reqID == "" {
		r = r.Clone(r.Context())
		reqID = ids.RequestID()
		r.Header.Set(requestIDHeader, reqID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	elapsed := time.Since(start)

	if err != nil {
		t.metrics.observeRequest(r.Method, "error", elapsed.Seconds())
		t.log.Warn("http.client.fail",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", reqID,
			"err", err,
		)
		return nil, err
	}

	class := httplog.Class(resp.StatusCode)
	t.metrics.observeRequest(r.Method, class, elapsed.Seconds())

	level, result := httplog.Meta(resp.StatusCode)
	// 401 on a protected path is handled by the refresh cycle.
	if resp.StatusCode == http.StatusUnauthorized && !IsExempt(r.URL.Path) {
		level = slog.LevelDebug
	}
	t.log.Log(r.Context(), level, "http.client.request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"class", class,
		"duration_ms", elapsed.Milliseconds(),
		"result", result,
		"request_id", reqID,
	)
	return resp, nil
}
