package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RefreshFunc performs one refresh call. It must not go through Client.Do.
type RefreshFunc func(ctx context.Context) error

// FailureFunc runs once per failed cycle, before any waiter is released.
type FailureFunc func(ctx context.Context, err error)

// RefresherConfig wires a Refresher.
type RefresherConfig struct {
	Refresh   RefreshFunc
	OnFailure FailureFunc
	// Timeout bounds a single refresh call. Default 15s.
	Timeout time.Duration
	Log     *slog.Logger
	Metrics *Metrics
}

// Refresher is a single-flight refresh coordinator.
//
// At most one cycle is in flight. The first caller starts it; callers arriving
// while it runs are queued behind it. When the refresh settles, the in-flight
// marker is cleared and the queue is drained in FIFO order under the same lock,
// so every queued caller sees the same outcome and a caller arriving after
// settlement starts a new cycle.
type Refresher struct {
	refresh   RefreshFunc
	onFailure FailureFunc
	timeout   time.Duration
	log       *slog.Logger
	metrics   *Metrics

	mu  sync.Mutex
	cur *flight
}

type flight struct {
	started time.Time
	queue   []chan error
}

// NewRefresher returns an idle coordinator.
func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Refresher{
		refresh:   cfg.Refresh,
		onFailure: cfg.OnFailure,
		timeout:   cfg.Timeout,
		log:       cfg.Log,
		metrics:   cfg.Metrics,
	}
}

// Refresh joins the in-flight cycle or starts a new one, and blocks until it
// settles. A failed cycle returns a *RefreshError.
//
// Cancelling ctx only stops this caller from waiting; the shared refresh keeps
// running for the other waiters, bounded by the configured timeout.
func (r *Refresher) Refresh(ctx context.Context) error {
	ch := make(chan error, 1)

	r.mu.Lock()
	f := r.cur
	leader := f == nil
	if leader {
		f = &flight{started: time.Now()}
		r.cur = f
	}
	f.queue = append(f.queue, ch)
	r.metrics.waiters(len(f.queue))
	r.mu.Unlock()

	if leader {
		go r.run(context.WithoutCancel(ctx), f)
	} else {
		r.metrics.joined()
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight reports whether a refresh cycle is running.
func (r *Refresher) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur != nil
}

// Pending returns the number of callers waiting on the in-flight cycle,
// including the one that started it.
func (r *Refresher) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return 0
	}
	return len(r.cur.queue)
}

func (r *Refresher) run(parent context.Context, f *flight) {
	var err error
	defer r.settle(f, &err)

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	r.log.Debug("refresh.start")

	if callErr := r.call(ctx); callErr != nil {
		err = &RefreshError{Err: callErr}
		r.metrics.cycle("failure")
		r.log.Warn("refresh.fail",
			"duration_ms", time.Since(f.started).Milliseconds(),
			"err", callErr,
		)
		if r.onFailure != nil {
			r.onFailure(ctx, err)
		}
		return
	}

	r.metrics.cycle("success")
	r.log.Info("refresh.ok", "duration_ms", time.Since(f.started).Milliseconds())
}

func (r *Refresher) call(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError{p}
		}
	}()
	return r.refresh(ctx)
}

func (r *Refresher) settle(f *flight, errp *error) {
	if p := recover(); p != nil {
		*errp = &RefreshError{Err: panicError{p}}
		r.metrics.cycle("failure")
	}

	r.mu.Lock()
	r.cur = nil
	queue := f.queue
	f.queue = nil
	for _, ch := range queue {
		ch <- *errp
	}
	r.metrics.waiters(0)
	r.mu.Unlock()

	r.log.Debug("refresh.settled", "waiters", len(queue))
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("refresh panicked: %v", p.v) }
