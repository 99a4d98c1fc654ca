// Package app wires the telecall command line: config, logging, session
// state, the authenticated API client and the subcommands built on it.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"telecall/cmd/internal/apiclient"
	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/session"
)

// IO carries the standard streams a command reads and writes.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO { return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr} }

// App is one CLI invocation: it owns the session store, the cookie vault and
// the metrics registry, and is closed when the command returns.
type App struct {
	cfg Config
	log Logger
	io  IO

	store   session.Store
	jar     *session.Jar
	cookies *session.CookieVault
	client  *apiclient.Client
	svc     *callcenter.Service
	reg     *prometheus.Registry

	reauth atomic.Bool
	now    func() time.Time
}

// New constructs a fully wired App from config and logger.
func New(ctx context.Context, cfg Config, log Logger, stdio IO) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, stdio.Err)
	}

	sealer, err := ValidateSecurityConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(ctx, cfg.Session, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		cfg:   cfg,
		log:   log,
		io:    stdio,
		store: store,
		jar:   session.NewJar(),
		reg:   reg,
		now:   time.Now,
	}

	a.client, err = apiclient.New(apiclient.Options{
		BaseURL:        cfg.APIBaseURL,
		Identity:       store,
		Jar:            a.jar,
		Timeout:        cfg.HTTPTimeout,
		RefreshPath:    cfg.RefreshPath,
		RefreshTimeout: cfg.RefreshTimeout,
		CSRFCookie:     cfg.CSRFCookie,
		CSRFHeader:     cfg.CSRFHeader,
		DeviceClass:    cfg.Session.DeviceClass,
		OnReauth:       a.onReauth,
		Log:            log,
		Metrics:        apiclient.NewMetrics(reg),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if path := cfg.Session.CookiePath(); path != "" {
		a.cookies = session.NewCookieVault(path, cfg.Session.VaultKey, sealer)
		if !a.cookies.Sealed() {
			log.Debug("session.cookies.unsealed", "path", path)
		}
		n, err := a.cookies.Restore(a.jar, a.client.BaseURL())
		switch {
		case errors.Is(err, session.ErrVaultLocked):
			_ = store.Close()
			return nil, err
		case err != nil:
			log.Warn("session.cookies.restore.fail", "path", path, "err", err)
		default:
			log.Debug("session.cookies.restored", "count", n)
		}
	}

	a.svc = callcenter.New(a.client, store, callcenter.Options{
		Now:             func() time.Time { return a.now() },
		FollowUpHorizon: cfg.FollowUpHorizon,
		DeviceClass:     cfg.Session.DeviceClass,
		Log:             log,
	})

	return a, nil
}

// onReauth runs once per failed refresh cycle, after the session is cleared.
func (a *App) onReauth() {
	if a.reauth.Swap(true) {
		return
	}
	_, _ = fmt.Fprintln(a.io.Err, "session expired, run `telecall login` to sign in again")
}

// ready reports whether a signed-in identity is available.
func (a *App) ready(ctx context.Context) error {
	_, err := a.store.Load(ctx)
	return err
}

// finish maps session loss to ErrReauthRequired.
func (a *App) finish(err error) error {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if a.reauth.Load() ||
		errors.Is(err, apiclient.ErrAuthExpired) ||
		errors.Is(err, apiclient.ErrRefreshFailed) ||
		errors.Is(err, session.ErrNoIdentity) {
		return fmt.Errorf("%w: %w", ErrReauthRequired, err)
	}
	return err
}

// Close persists the cookie jar (or removes it once signed out) and releases
// the session store.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.cookies != nil {
		if _, err := a.store.Load(ctx); errors.Is(err, session.ErrNoIdentity) {
			errs = append(errs, a.cookies.Clear())
		} else {
			errs = append(errs, a.cookies.Persist(a.jar, a.client.BaseURL()))
		}
	}
	errs = append(errs, a.store.Close())

	return errors.Join(errs...)
}
