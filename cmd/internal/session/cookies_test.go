package session

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"telecall/cmd/security/vault"
)

func cheapVault() vault.Config {
	cfg := vault.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestJar_ResetAndLookup(t *testing.T) {
	t.Parallel()

	u := mustURL(t, "https://api.example.com/api/")
	j := NewJar()
	j.SetCookies(u, []*http.Cookie{
		{Name: "access", Value: "a1", Path: "/"},
		{Name: "csrf_token", Value: "c1", Path: "/"},
	})

	if v, ok := j.Cookie(u, "csrf_token"); !ok || v != "c1" {
		t.Fatalf("Cookie(csrf_token)=%q,%v", v, ok)
	}

	j.Reset()
	if got := j.Cookies(u); len(got) != 0 {
		t.Fatalf("cookies after Reset: %v", got)
	}
	if _, ok := j.Cookie(u, "access"); ok {
		t.Fatalf("access cookie survived Reset")
	}
}

func TestCookieVault_PlainRoundTrip(t *testing.T) {
	t.Parallel()

	u := mustURL(t, "https://api.example.com")
	path := filepath.Join(t.TempDir(), "default.cookies")

	src := NewJar()
	src.SetCookies(u, []*http.Cookie{{Name: "access", Value: "a1", Path: "/"}})

	v := NewCookieVault(path, "", cheapVault())
	if v.Sealed() {
		t.Fatalf("vault without passphrase must not seal")
	}
	if err := v.Persist(src, u); err != nil {
		t.Fatalf("Persist error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"access"`) {
		t.Fatalf("plain vault should be readable json: %s", raw)
	}

	dst := NewJar()
	n, err := v.Restore(dst, u)
	if err != nil || n != 1 {
		t.Fatalf("Restore n=%d err=%v", n, err)
	}
	if val, ok := dst.Cookie(u, "access"); !ok || val != "a1" {
		t.Fatalf("restored access=%q,%v", val, ok)
	}
}

func TestCookieVault_SealedRoundTrip(t *testing.T) {
	t.Parallel()

	u := mustURL(t, "https://api.example.com")
	path := filepath.Join(t.TempDir(), "default.cookies")
	const key = "a long enough vault passphrase"

	src := NewJar()
	src.SetCookies(u, []*http.Cookie{{Name: "refresh", Value: "r-secret", Path: "/"}})

	sealed := NewCookieVault(path, key, cheapVault())
	if err := sealed.Persist(src, u); err != nil {
		t.Fatalf("Persist error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(raw), "r-secret") || !vault.IsSealed(raw) {
		t.Fatalf("cookie value leaked into sealed file")
	}

	if _, err := NewCookieVault(path, "", cheapVault()).Restore(NewJar(), u); !errors.Is(err, ErrVaultLocked) {
		t.Fatalf("Restore without key err=%v want ErrVaultLocked", err)
	}

	dst := NewJar()
	if n, err := sealed.Restore(dst, u); err != nil || n != 1 {
		t.Fatalf("Restore n=%d err=%v", n, err)
	}
	if val, _ := dst.Cookie(u, "refresh"); val != "r-secret" {
		t.Fatalf("restored refresh=%q", val)
	}
}

func TestCookieVault_EmptyJarClears(t *testing.T) {
	t.Parallel()

	u := mustURL(t, "https://api.example.com")
	path := filepath.Join(t.TempDir(), "default.cookies")
	if err := os.WriteFile(path, []byte(`[{"name":"x","value":"y"}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	v := NewCookieVault(path, "", cheapVault())
	if err := v.Persist(NewJar(), u); err != nil {
		t.Fatalf("Persist error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected vault file removed, stat err=%v", err)
	}

	n, err := v.Restore(NewJar(), u)
	if err != nil || n != 0 {
		t.Fatalf("Restore on missing file n=%d err=%v", n, err)
	}
}

func TestCookieVault_KeepsPathScopedCookies(t *testing.T) {
	t.Parallel()

	base := mustURL(t, "https://api.example.com/v1")
	refreshURL := mustURL(t, "https://api.example.com/v1/auth/refresh")
	dashboardURL := mustURL(t, "https://api.example.com/v1/api/manager/dashboard")
	path := filepath.Join(t.TempDir(), "default.cookies")
	expires := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	src := NewJar()
	src.SetCookies(mustURL(t, "https://api.example.com/v1/auth/verify-otp"), []*http.Cookie{
		{Name: "access", Value: "a1", Path: "/", Secure: true, HttpOnly: true},
	})
	src.SetCookies(refreshURL, []*http.Cookie{
		{Name: "refresh", Value: "r1", Path: "/v1/auth", Expires: expires, Secure: true, HttpOnly: true},
	})
	if _, ok := src.Cookie(base, "refresh"); ok {
		t.Fatalf("refresh cookie must not be sent to the base URL")
	}

	v := NewCookieVault(path, "", cheapVault())
	if err := v.Persist(src, base); err != nil {
		t.Fatalf("Persist error: %v", err)
	}

	dst := NewJar()
	n, err := v.Restore(dst, base)
	if err != nil || n != 2 {
		t.Fatalf("Restore n=%d err=%v", n, err)
	}
	if val, ok := dst.Cookie(refreshURL, "refresh"); !ok || val != "r1" {
		t.Fatalf("refresh cookie for refresh URL=%q,%v", val, ok)
	}
	if _, ok := dst.Cookie(dashboardURL, "refresh"); ok {
		t.Fatalf("restored refresh cookie widened beyond /v1/auth")
	}
	if val, ok := dst.Cookie(dashboardURL, "access"); !ok || val != "a1" {
		t.Fatalf("access cookie for dashboard=%q,%v", val, ok)
	}
	if _, ok := dst.Cookie(mustURL(t, "http://api.example.com/v1/auth/refresh"), "refresh"); ok {
		t.Fatalf("secure flag lost on restore")
	}

	var got *http.Cookie
	for _, c := range dst.Snapshot(base) {
		if c.Name == "refresh" {
			got = c
		}
	}
	if got == nil || got.Path != "/v1/auth" || !got.Expires.Equal(expires) || !got.HttpOnly {
		t.Fatalf("restored refresh attributes=%+v", got)
	}
}

func TestCookieVault_SkipsExpired(t *testing.T) {
	t.Parallel()

	u := mustURL(t, "https://api.example.com")
	path := filepath.Join(t.TempDir(), "default.cookies")
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	data := `[{"name":"old","value":"x","path":"/","expires":"` + past + `"},` +
		`{"name":"live","value":"y","path":"/","expires":"` + future + `"},` +
		`{"name":"legacy","value":"z"}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	dst := NewJar()
	n, err := NewCookieVault(path, "", cheapVault()).Restore(dst, u)
	if err != nil || n != 2 {
		t.Fatalf("Restore n=%d err=%v", n, err)
	}
	if _, ok := dst.Cookie(u, "old"); ok {
		t.Fatalf("expired cookie restored")
	}
	if _, ok := dst.Cookie(mustURL(t, "https://api.example.com/any/path"), "legacy"); !ok {
		t.Fatalf("cookie saved without a path should restore at /")
	}
}

func TestJar_SnapshotDropsDeletedCookies(t *testing.T) {
	t.Parallel()

	u := mustURL(t, "https://api.example.com/auth/refresh")
	j := NewJar()
	j.SetCookies(u, []*http.Cookie{{Name: "refresh", Value: "r1"}, {Name: "csrf", Value: "c1", Path: "/"}})
	j.SetCookies(u, []*http.Cookie{{Name: "refresh", Value: "", MaxAge: -1}})

	snap := j.Snapshot(u)
	if len(snap) != 1 || snap[0].Name != "csrf" {
		t.Fatalf("snapshot=%v", snap)
	}

	j.SetCookies(u, []*http.Cookie{{Name: "refresh", Value: "r2"}})
	snap = j.Snapshot(u)
	if len(snap) != 2 || snap[1].Name != "refresh" || snap[1].Path != "/auth" {
		t.Fatalf("default path not recorded: %v", snap)
	}
}
