package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"telecall/cmd/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// backend is a fake API: protected paths accept only the current access
// cookie, /auth/refresh mints a new one.
type backend struct {
	t   *testing.T
	srv *httptest.Server

	client *Client

	refreshCalls atomic.Int32
	// refreshStatus is the status the refresh endpoint answers with.
	refreshStatus int
	// holdRefreshFor makes the refresh handler wait until that many callers
	// are queued on the client's refresher.
	holdRefreshFor int
	// gate, when set, blocks the refresh handler until closed.
	gate chan struct{}

	mu          sync.Mutex
	valid       string
	generation  int
	hits        map[string]int
	lastRefresh refreshPayload
	lastCSRF    string
	lastReqID   string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{t: t, refreshStatus: http.StatusOK, hits: make(map[string]int)}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	b.lastReqID = r.Header.Get("X-Request-ID")
	b.mu.Unlock()

	switch {
	case r.URL.Path == "/auth/refresh":
		b.serveRefresh(w, r)
	case strings.Contains(r.URL.Path, "otp"):
		http.Error(w, `{"code":"otp_invalid","message":"wrong otp"}`, http.StatusUnauthorized)
	case r.URL.Path == "/api/always-401":
		w.WriteHeader(http.StatusUnauthorized)
	case r.URL.Path == "/api/boom":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal","message":"kaput"}`))
	default:
		ck, err := r.Cookie("access")
		b.mu.Lock()
		ok := err == nil && b.valid != "" && ck.Value == b.valid
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path, "q": r.URL.RawQuery})
	}
}

func (b *backend) serveRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	var p refreshPayload
	_ = json.NewDecoder(r.Body).Decode(&p)

	b.mu.Lock()
	b.lastRefresh = p
	b.lastCSRF = r.Header.Get("X-CSRF-Token")
	b.mu.Unlock()

	if b.holdRefreshFor > 0 && !waitPending(b.client.Refresher(), b.holdRefreshFor) {
		b.t.Errorf("refresh: waiters never reached %d (have %d)", b.holdRefreshFor, b.client.Refresher().Pending())
	}

	if b.gate != nil {
		<-b.gate
	}

	if b.refreshStatus != http.StatusOK {
		http.Error(w, `{"code":"refresh_denied","message":"session revoked"}`, b.refreshStatus)
		return
	}

	b.mu.Lock()
	b.generation++
	b.valid = fmt.Sprintf("fresh-%d", b.generation)
	token := b.valid
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "access", Value: token, Path: "/", HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// expire invalidates whatever access cookie the client holds.
func (b *backend) expire() {
	b.mu.Lock()
	b.valid = "revoked"
	b.mu.Unlock()
}

func (b *backend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func waitPending(r *Refresher, n int) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if r.Pending() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

type harness struct {
	b       *backend
	c       *Client
	store   *session.MemoryStore
	jar     *session.Jar
	metrics *Metrics
	reauths atomic.Int32
}

func newHarness(t *testing.T, withIdentity bool) *harness {
	t.Helper()

	h := &harness{
		b:       newBackend(t),
		store:   session.NewMemoryStore(),
		jar:     session.NewJar(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	if withIdentity {
		err := h.store.Save(context.Background(), session.Identity{
			SubjectID: "tc-7",
			Role:      session.RoleTelecaller,
		})
		if err != nil {
			t.Fatalf("seed identity: %v", err)
		}
	}

	c, err := New(Options{
		BaseURL:     h.b.srv.URL,
		Identity:    h.store,
		Jar:         h.jar,
		CSRFCookie:  "csrf_token",
		DeviceClass: session.DeviceWeb,
		OnReauth:    func() { h.reauths.Add(1) },
		Log:         discardLogger(),
		Metrics:     h.metrics,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	h.c = c
	h.b.client = c

	u, _ := url.Parse(h.b.srv.URL)
	h.jar.SetCookies(u, []*http.Cookie{
		{Name: "access", Value: "stale", Path: "/"},
		{Name: "csrf_token", Value: "c-1", Path: "/"},
	})
	return h
}

func TestDo_SuccessPassesThrough(t *testing.T) {
	h := newHarness(t, true)
	h.b.mu.Lock()
	h.b.valid = "stale"
	h.b.mu.Unlock()

	resp, err := h.c.Do(context.Background(), Get("/api/dashboard", url.Values{"range": {"7d"}}))
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Attempt != 0 {
		t.Fatalf("status=%d attempt=%d", resp.StatusCode, resp.Attempt)
	}

	var body map[string]string
	if err := resp.DecodeJSON(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["q"] != "range=7d" {
		t.Fatalf("query not forwarded: %q", body["q"])
	}
	if resp.RequestID == "" || resp.RequestID != h.b.lastReqID {
		t.Fatalf("request id mismatch: resp=%q server=%q", resp.RequestID, h.b.lastReqID)
	}
	if got := h.b.refreshCalls.Load(); got != 0 {
		t.Fatalf("refresh calls=%d want 0", got)
	}
}

func TestDo_ConcurrentUnauthorized_SingleRefresh(t *testing.T) {
	for _, n := range []int{3, 25} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			h := newHarness(t, true)
			h.b.holdRefreshFor = n

			var wg sync.WaitGroup
			errs := make([]error, n)
			resps := make([]*Response, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					resps[i], errs[i] = h.c.Do(context.Background(), Get(fmt.Sprintf("/api/gyms/%d", i), nil))
				}(i)
			}
			wg.Wait()

			if got := h.b.refreshCalls.Load(); got != 1 {
				t.Fatalf("refresh calls=%d want 1", got)
			}
			for i := 0; i < n; i++ {
				if errs[i] != nil {
					t.Fatalf("request %d: %v", i, errs[i])
				}
				if resps[i].Attempt != 1 {
					t.Fatalf("request %d: attempt=%d want 1", i, resps[i].Attempt)
				}
				if hits := h.b.hitCount(fmt.Sprintf("/api/gyms/%d", i)); hits != 2 {
					t.Fatalf("request %d sent %d times want 2", i, hits)
				}
			}
			if h.reauths.Load() != 0 {
				t.Fatalf("reauth fired on successful refresh")
			}
			if h.c.Refresher().InFlight() {
				t.Fatalf("refresh still marked in flight")
			}

			if got := testutil.ToFloat64(h.metrics.RefreshCycles.WithLabelValues("success")); got != 1 {
				t.Fatalf("refresh success cycles=%v want 1", got)
			}
			if got := testutil.ToFloat64(h.metrics.RefreshJoined); got != float64(n-1) {
				t.Fatalf("joined=%v want %d", got, n-1)
			}
			if got := testutil.ToFloat64(h.metrics.Retries); got != float64(n) {
				t.Fatalf("retries=%v want %d", got, n)
			}
		})
	}
}

func TestDo_RefreshFailure_RejectsAllAndClearsSession(t *testing.T) {
	const n = 3
	h := newHarness(t, true)
	h.b.holdRefreshFor = n
	h.b.refreshStatus = http.StatusUnauthorized

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.c.Do(context.Background(), Get(fmt.Sprintf("/api/calls/%d", i), nil))
		}(i)
	}
	wg.Wait()

	if got := h.b.refreshCalls.Load(); got != 1 {
		t.Fatalf("refresh calls=%d want 1", got)
	}
	for i, err := range errs {
		if !errors.Is(err, ErrRefreshFailed) {
			t.Fatalf("request %d: err=%v want ErrRefreshFailed", i, err)
		}
		if StatusCode(err) != http.StatusUnauthorized {
			t.Fatalf("request %d: status=%d want 401 from refresh", i, StatusCode(err))
		}
		if hits := h.b.hitCount(fmt.Sprintf("/api/calls/%d", i)); hits != 1 {
			t.Fatalf("request %d re-sent after failed refresh (hits=%d)", i, hits)
		}
	}

	if got := h.reauths.Load(); got != 1 {
		t.Fatalf("reauth fired %d times want 1", got)
	}
	if _, err := h.store.Load(context.Background()); !errors.Is(err, session.ErrNoIdentity) {
		t.Fatalf("identity not cleared: %v", err)
	}
	if got := h.jar.Cookies(h.c.BaseURL()); len(got) != 0 {
		t.Fatalf("cookies not cleared: %v", got)
	}
	if got := testutil.ToFloat64(h.metrics.RefreshCycles.WithLabelValues("failure")); got != 1 {
		t.Fatalf("refresh failure cycles=%v want 1", got)
	}
}

func TestDo_ExemptPathsNotRetried(t *testing.T) {
	for _, path := range []string{"/auth/verify-otp", "/auth/send-otp", "/telecaller/verify-otp"} {
		t.Run(path, func(t *testing.T) {
			h := newHarness(t, true)

			_, err := h.c.Do(context.Background(), Post(path, map[string]string{"otp": "000000"}))
			if !errors.Is(err, ErrAuthExempt) {
				t.Fatalf("err=%v want ErrAuthExempt", err)
			}

			var he *HTTPError
			if !errors.As(err, &he) || he.StatusCode != http.StatusUnauthorized || he.Code != "otp_invalid" {
				t.Fatalf("error not surfaced unchanged: %#v", he)
			}
			if got := h.b.refreshCalls.Load(); got != 0 {
				t.Fatalf("refresh calls=%d want 0", got)
			}
			if hits := h.b.hitCount(path); hits != 1 {
				t.Fatalf("hits=%d want 1", hits)
			}
			if h.reauths.Load() != 0 {
				t.Fatalf("reauth fired for exempt path")
			}
		})
	}
}

func TestDo_RetriedAtMostOnce(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.c.Do(context.Background(), Get("/api/always-401", nil))
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("err=%v want ErrAuthExpired", err)
	}
	if got := h.b.refreshCalls.Load(); got != 1 {
		t.Fatalf("refresh calls=%d want 1", got)
	}
	if hits := h.b.hitCount("/api/always-401"); hits != 2 {
		t.Fatalf("hits=%d want 2", hits)
	}
	if h.reauths.Load() != 0 {
		t.Fatalf("reauth must not fire when the refresh itself succeeded")
	}
}

func TestDo_OtherStatusSurfaced(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.c.Do(context.Background(), Get("/api/boom", nil))
	if !errors.Is(err, ErrHTTPStatus) {
		t.Fatalf("err=%v want ErrHTTPStatus", err)
	}
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if he.StatusCode != 500 || he.Code != "internal" || he.Message != "kaput" {
		t.Fatalf("unexpected error fields: %+v", he)
	}
	if got := h.b.refreshCalls.Load(); got != 0 {
		t.Fatalf("refresh calls=%d want 0", got)
	}
}

func TestDo_MissingIdentityFailsRefresh(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.c.Do(context.Background(), Get("/api/dashboard", nil))
	if !errors.Is(err, ErrRefreshFailed) || !errors.Is(err, session.ErrNoIdentity) {
		t.Fatalf("err=%v want ErrRefreshFailed wrapping ErrNoIdentity", err)
	}
	if got := h.b.refreshCalls.Load(); got != 0 {
		t.Fatalf("refresh endpoint called without identity (%d)", got)
	}
	if got := h.reauths.Load(); got != 1 {
		t.Fatalf("reauth fired %d times want 1", got)
	}
}

func TestDo_NewCycleAfterSettlement(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	if _, err := h.c.Do(ctx, Get("/api/stats", nil)); err != nil {
		t.Fatalf("first Do: %v", err)
	}
	h.b.expire()
	if _, err := h.c.Do(ctx, Get("/api/stats", nil)); err != nil {
		t.Fatalf("second Do: %v", err)
	}

	if got := h.b.refreshCalls.Load(); got != 2 {
		t.Fatalf("refresh calls=%d want 2", got)
	}
}

func TestRefreshPayloadAndCSRF(t *testing.T) {
	h := newHarness(t, true)

	if _, err := h.c.Do(context.Background(), Get("/api/stats", nil)); err != nil {
		t.Fatalf("Do: %v", err)
	}

	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	want := refreshPayload{SubjectID: "tc-7", Role: "telecaller", DeviceClass: "web"}
	if h.b.lastRefresh != want {
		t.Fatalf("refresh payload=%+v want=%+v", h.b.lastRefresh, want)
	}
	if h.b.lastCSRF != "c-1" {
		t.Fatalf("csrf header=%q want c-1", h.b.lastCSRF)
	}
}

func TestDo_WaiterContextCancelled(t *testing.T) {
	h := newHarness(t, true)
	h.b.gate = make(chan struct{})

	leaderDone := make(chan error, 1)
	go func() {
		_, err := h.c.Do(context.Background(), Get("/api/leader", nil))
		leaderDone <- err
	}()

	if !waitPending(h.c.Refresher(), 1) {
		t.Fatalf("leader never started a refresh")
	}

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := h.c.Do(ctx, Get("/api/waiter", nil))
		waiterDone <- err
	}()

	if !waitPending(h.c.Refresher(), 2) {
		t.Fatalf("waiter never joined")
	}
	cancel()

	if err := <-waiterDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("waiter err=%v want context.Canceled", err)
	}
	close(h.b.gate)

	if err := <-leaderDone; err != nil {
		t.Fatalf("leader err=%v", err)
	}
	if got := h.b.refreshCalls.Load(); got != 1 {
		t.Fatalf("refresh calls=%d want 1", got)
	}
}

func TestClearSession(t *testing.T) {
	h := newHarness(t, true)

	if err := h.c.ClearSession(context.Background()); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := h.store.Load(context.Background()); !errors.Is(err, session.ErrNoIdentity) {
		t.Fatalf("identity not cleared: %v", err)
	}
	if got := h.jar.Cookies(h.c.BaseURL()); len(got) != 0 {
		t.Fatalf("cookies not cleared: %v", got)
	}
	if h.reauths.Load() != 0 {
		t.Fatalf("ClearSession must not fire reauth")
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	cases := []Options{
		{BaseURL: "", Identity: store},
		{BaseURL: "ftp://example.com", Identity: store},
		{BaseURL: "/relative", Identity: store},
		{BaseURL: "https://api.example.com"},
	}
	for _, opts := range cases {
		if _, err := New(opts); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("New(%+v) err=%v want ErrInvalidConfig", opts, err)
		}
	}
}

func TestEndpoint(t *testing.T) {
	t.Parallel()

	c, err := New(Options{BaseURL: "https://api.example.com/v1/", Identity: session.NewMemoryStore(), Log: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		req  Request
		want string
	}{
		{req: Get("/gyms", nil), want: "https://api.example.com/v1/gyms"},
		{req: Get("gyms", url.Values{"page": {"2"}}), want: "https://api.example.com/v1/gyms?page=2"},
		{req: Request{Path: "/health", Base: "https://status.example.com"}, want: "https://status.example.com/health"},
	}
	for _, tc := range cases {
		u, err := c.endpoint(tc.req)
		if err != nil {
			t.Fatalf("endpoint(%+v): %v", tc.req, err)
		}
		if u.String() != tc.want {
			t.Fatalf("endpoint=%q want=%q", u.String(), tc.want)
		}
	}
}
