package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"telecall/cmd/security/vault"
)

// CookieVault persists the cookies a jar holds for one base URL between runs.
// With a passphrase the file is sealed; without one it is plain JSON at 0600.
type CookieVault struct {
	path       string
	passphrase string
	sealer     vault.Config
}

type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// snapshotter is implemented by Jar; other jars only expose the cookies they
// would send to the base URL itself.
type snapshotter interface {
	Snapshot(u *url.URL) []*http.Cookie
}

// NewCookieVault returns a vault at path. An empty passphrase disables sealing.
func NewCookieVault(path, passphrase string, sealer vault.Config) *CookieVault {
	return &CookieVault{path: path, passphrase: passphrase, sealer: sealer}
}

// Sealed reports whether Persist encrypts the file.
func (v *CookieVault) Sealed() bool { return v.passphrase != "" }

// Path returns the backing file path.
func (v *CookieVault) Path() string { return v.path }

// Restore loads persisted cookies into jar for u's host with the path and
// flags they were saved with, and returns how many were set. Expired cookies
// are skipped. A missing file restores nothing.
func (v *CookieVault) Restore(jar http.CookieJar, u *url.URL) (int, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	if vault.IsSealed(data) {
		if v.passphrase == "" {
			return 0, ErrVaultLocked
		}
		data, err = v.sealer.Open(v.passphrase, string(data))
		if err != nil {
			return 0, fmt.Errorf("open cookie vault: %w", err)
		}
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return 0, fmt.Errorf("decode cookie vault: %w", err)
	}

	now := time.Now()
	n := 0
	for _, c := range stored {
		if c.Name == "" || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		at := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}
		jar.SetCookies(at, []*http.Cookie{{
			Name:     c.Name,
			Value:    c.Value,
			Path:     path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}})
		n++
	}
	return n, nil
}

// Persist writes the cookies jar holds for u's host, every path included.
// An empty jar removes the file.
func (v *CookieVault) Persist(jar http.CookieJar, u *url.URL) error {
	var cookies []*http.Cookie
	if s, ok := jar.(snapshotter); ok {
		cookies = s.Snapshot(u)
	} else {
		cookies = jar.Cookies(u)
	}
	if len(cookies) == 0 {
		return v.Clear()
	}

	now := time.Now().UTC()
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires.UTC(),
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SavedAt:  now,
		})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	if v.Sealed() {
		sealed, err := v.sealer.Seal(v.passphrase, data)
		if err != nil {
			return fmt.Errorf("seal cookie vault: %w", err)
		}
		data = []byte(sealed)
	}
	return writeFileAtomic(v.path, data)
}

// Clear removes the persisted cookies.
func (v *CookieVault) Clear() error { return removeIfExists(v.path) }
