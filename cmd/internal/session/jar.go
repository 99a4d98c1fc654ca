package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar is an http.CookieJar that can be emptied in one step when the session
// is invalidated. It also remembers the attributes each cookie was set with,
// which cookiejar does not expose, so the cookies can be persisted as set.
type Jar struct {
	mu    sync.RWMutex
	inner *cookiejar.Jar
	set   map[cookieKey]*http.Cookie
	now   func() time.Time
}

type cookieKey struct {
	name, host, path string
}

// NewJar returns an empty jar using the public suffix list.
func NewJar() *Jar {
	return &Jar{inner: newCookieJar(), set: map[cookieKey]*http.Cookie{}, now: time.Now}
}

func newCookieJar() *cookiejar.Jar {
	// cookiejar.New never fails with a non-nil Options.
	j, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return j
}

var _ http.CookieJar = (*Jar)(nil)

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	inner := j.inner
	now := j.now()
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		cp := *c
		if cp.Path == "" || cp.Path[0] != '/' {
			cp.Path = defaultCookiePath(u.Path)
		}
		if cp.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
		}
		k := cookieKey{name: cp.Name, host: u.Hostname(), path: cp.Path}
		if cp.MaxAge < 0 || (!cp.Expires.IsZero() && !cp.Expires.After(now)) {
			delete(j.set, k)
			continue
		}
		cp.MaxAge = 0
		cp.Raw, cp.RawExpires, cp.Unparsed = "", "", nil
		j.set[k] = &cp
	}
	j.mu.Unlock()
	inner.SetCookies(u, cookies)
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	inner := j.inner
	j.mu.RUnlock()
	return inner.Cookies(u)
}

// Cookie returns the value of the named cookie that would be sent to u.
func (j *Jar) Cookie(u *url.URL, name string) (string, bool) {
	for _, c := range j.Cookies(u) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Snapshot returns the live cookies set for u's host, whatever their path,
// with the attributes they were set with. Cookies the jar has since dropped
// or replaced are left out.
func (j *Jar) Snapshot(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	host := u.Hostname()
	var out []*http.Cookie
	for k, c := range j.set {
		if k.host != host {
			continue
		}
		at := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: k.path}
		for _, live := range j.inner.Cookies(at) {
			if live.Name == c.Name && live.Value == c.Value {
				cp := *c
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Path != out[b].Path {
			return out[a].Path < out[b].Path
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Reset drops every cookie.
func (j *Jar) Reset() {
	j.mu.Lock()
	j.inner = newCookieJar()
	j.set = map[cookieKey]*http.Cookie{}
	j.mu.Unlock()
}

// defaultCookiePath is the RFC 6265 default-path of a request path.
func defaultCookiePath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
