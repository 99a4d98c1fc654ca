package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"telecall/cmd/internal/apiclient"
	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/session"
)

func runWatch(ctx context.Context, a *App, args []string) error {
	fs := a.flags("watch")
	interval := fs.Duration("interval", a.cfg.PollInterval, "poll interval")
	metricsAddr := fs.String("metrics-addr", a.cfg.MetricsAddr, "serve /metrics, /healthz and /readyz on this address")
	once := fs.Bool("once", false, "poll a single time and exit")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *interval < time.Second {
		return usagef("watch", "--interval must be at least 1s")
	}

	if *once {
		return a.poll(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	if *metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, *metricsAddr, a.log, a.reg, a.ready)
		})
	}
	g.Go(func() error {
		t := time.NewTicker(*interval)
		defer t.Stop()
		for {
			if err := a.poll(gctx); err != nil {
				if fatalPollError(err) {
					return err
				}
				a.log.Warn("watch.poll.fail", "err", err)
			}
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// poll fetches dashboard stats and today's pending follow-ups concurrently.
// Both requests share one refresh when the access cookie has expired.
func (a *App) poll(ctx context.Context) error {
	id, err := a.svc.Whoami(ctx)
	if err != nil {
		return err
	}

	var stats callcenter.DashboardStats
	var due callcenter.Page[callcenter.FollowUp]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = a.svc.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		due, err = a.svc.ListFollowUps(gctx, callcenter.FollowUpQuery{
			Date:   a.svc.Today().String(),
			Status: callcenter.FollowUpPending,
			Limit:  callcenter.MaxLimit,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.io.Out, "%s  %s\n", a.now().Format("15:04:05"), headerStyle.Render("dashboard"))
	renderKV(a.io.Out, statsRows(stats, id.Role))
	renderTable(a.io.Out, []string{"id", "date", "gym", "status", "remarks"}, followUpRows(due.Items))
	renderFooter(a.io.Out, len(due.Items), due.Page, due.Total, due.HasMore())
	return nil
}

// fatalPollError stops watch when polling cannot recover on its own.
func fatalPollError(err error) bool {
	return errors.Is(err, apiclient.ErrAuthExpired) ||
		errors.Is(err, apiclient.ErrRefreshFailed) ||
		errors.Is(err, session.ErrNoIdentity) ||
		errors.Is(err, callcenter.ErrForbidden)
}
