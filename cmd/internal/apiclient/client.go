package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"telecall/cmd/internal/ids"
	"telecall/cmd/internal/session"
)

// ErrInvalidConfig is returned by New for unusable options.
var ErrInvalidConfig = errors.New("invalid client config")

// IdentityStore is the part of the session store the client needs.
type IdentityStore interface {
	Load(ctx context.Context) (session.Identity, error)
	Clear(ctx context.Context) error
}

// CookieJar is a jar that can be emptied when the session is invalidated.
type CookieJar interface {
	http.CookieJar
	Reset()
}

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. https://api.example.com/v1.
	BaseURL string

	// Identity supplies subject id and role for refresh and is cleared on refresh failure.
	Identity IdentityStore

	// Jar carries the credential cookies. Default: a fresh session.Jar.
	Jar CookieJar

	// Transport is the underlying round tripper. Default: http.DefaultTransport.
	Transport http.RoundTripper

	// Timeout bounds one HTTP exchange. Default 30s.
	Timeout time.Duration

	// RefreshPath is the refresh endpoint. Default /auth/refresh.
	RefreshPath string

	// RefreshTimeout bounds the shared refresh call. Default 15s.
	RefreshTimeout time.Duration

	// CSRFCookie, when set and present in the jar, is echoed in CSRFHeader on refresh.
	CSRFCookie string
	CSRFHeader string

	// DeviceClass is sent when the stored identity has none. Default desktop.
	DeviceClass session.DeviceClass

	// OnReauth fires once per failed refresh cycle, after the session is cleared.
	OnReauth func()

	// MaxBodyBytes caps how much of a response body is read. Default 8 MiB.
	MaxBodyBytes int64

	Log     *slog.Logger
	Metrics *Metrics
}

// Client sends backend requests with cookie credentials and transparent refresh.
type Client struct {
	base     *url.URL
	http     *http.Client
	jar      CookieJar
	identity IdentityStore

	refresher   *Refresher
	refreshPath string
	csrfCookie  string
	csrfHeader  string
	device      session.DeviceClass
	onReauth    func()
	maxBody     int64

	log     *slog.Logger
	metrics *Metrics
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	base, err := parseBase(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Identity == nil {
		return nil, fmt.Errorf("%w: identity store is required", ErrInvalidConfig)
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	jar := opts.Jar
	if jar == nil {
		jar = session.NewJar()
	}

	c := &Client{
		base:        base,
		jar:         jar,
		identity:    opts.Identity,
		refreshPath: nonEmpty(opts.RefreshPath, "/auth/refresh"),
		csrfCookie:  opts.CSRFCookie,
		csrfHeader:  nonEmpty(opts.CSRFHeader, "X-CSRF-Token"),
		device:      opts.DeviceClass,
		onReauth:    opts.OnReauth,
		maxBody:     opts.MaxBodyBytes,
		log:         log,
		metrics:     opts.Metrics,
	}
	if c.device == "" {
		c.device = session.DeviceDesktop
	}
	if c.maxBody <= 0 {
		c.maxBody = 8 << 20
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.http = &http.Client{
		Jar:       jar,
		Timeout:   timeout,
		Transport: newLoggingTransport(opts.Transport, log, opts.Metrics),
	}

	c.refresher = NewRefresher(RefresherConfig{
		Refresh:   c.callRefresh,
		OnFailure: c.expireSession,
		Timeout:   opts.RefreshTimeout,
		Log:       log,
		Metrics:   opts.Metrics,
	})

	return c, nil
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be an absolute http(s) url", ErrInvalidConfig, raw)
	}
	return u, nil
}

// Do sends req. A 401 on a protected path triggers (or joins) one refresh
// cycle and re-sends req exactly once.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode != http.StatusUnauthorized:
		return nil, newHTTPError("apiclient.Do", req, resp.StatusCode, resp.Body, ErrHTTPStatus)
	case IsExempt(req.Path):
		return nil, newHTTPError("apiclient.Do", req, resp.StatusCode, resp.Body, ErrAuthExempt)
	case req.Retried():
		return nil, newHTTPError("apiclient.Do", req, resp.StatusCode, resp.Body, ErrAuthExpired)
	}

	next := req.retry()
	if err := c.refresher.Refresh(ctx); err != nil {
		return nil, err
	}
	c.metrics.retry()
	return c.Do(ctx, next)
}

// DoJSON sends req and decodes a 2xx body into dst (which may be nil).
func (c *Client) DoJSON(ctx context.Context, req Request, dst any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	if err := resp.DecodeJSON(dst); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	u, err := c.endpoint(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(b)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	reqID := ids.RequestID()
	hreq.Header.Set(requestIDHeader, reqID)
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.Path, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  reqID,
		Attempt:    req.Attempt(),
	}, nil
}

func (c *Client) endpoint(req Request) (*url.URL, error) {
	base := c.base
	if req.Base != "" {
		b, err := parseBase(req.Base)
		if err != nil {
			return nil, err
		}
		base = b
	}
	u := *base
	u.Path = joinPath(base.Path, req.Path)
	u.RawPath = ""
	u.RawQuery = ""
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return &u, nil
}

func joinPath(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// Refresher exposes the coordinator, mainly for observability.
func (c *Client) Refresher() *Refresher { return c.refresher }

// Jar returns the credential jar.
func (c *Client) Jar() CookieJar { return c.jar }

// BaseURL returns a copy of the configured base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// ClearSession drops the stored identity and every cookie without firing OnReauth.
func (c *Client) ClearSession(ctx context.Context) error {
	c.jar.Reset()
	return c.identity.Clear(ctx)
}

func (c *Client) expireSession(ctx context.Context, cause error) {
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := c.ClearSession(clearCtx); err != nil {
		c.log.Error("session.clear.fail", "err", err)
	}
	c.log.Warn("session.cleared", "reason", "refresh_failed", "err", cause)

	if c.onReauth != nil {
		c.onReauth()
	}
}

func nonEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
