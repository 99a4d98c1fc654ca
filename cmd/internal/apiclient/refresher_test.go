package apiclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRefresher_SingleFlight(t *testing.T) {
	const n = 10

	var calls atomic.Int32
	var r *Refresher
	r = NewRefresher(RefresherConfig{
		Refresh: func(ctx context.Context) error {
			calls.Add(1)
			if !waitPending(r, n) {
				t.Errorf("waiters never reached %d", n)
			}
			return nil
		},
		Log: discardLogger(),
	})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("refresh calls=%d want 1", got)
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("waiter %d: %v", i, err)
		}
	}
	if r.InFlight() || r.Pending() != 0 {
		t.Fatalf("coordinator not idle: inflight=%v pending=%d", r.InFlight(), r.Pending())
	}
}

func TestRefresher_FailureSettlesEveryWaiterOnce(t *testing.T) {
	const n = 4
	boom := errors.New("boom")

	var failures atomic.Int32
	var r *Refresher
	r = NewRefresher(RefresherConfig{
		Refresh: func(ctx context.Context) error {
			waitPending(r, n)
			return boom
		},
		OnFailure: func(ctx context.Context, err error) {
			failures.Add(1)
			if !errors.Is(err, ErrRefreshFailed) {
				t.Errorf("OnFailure err=%v want ErrRefreshFailed", err)
			}
		},
		Log: discardLogger(),
	})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	if got := failures.Load(); got != 1 {
		t.Fatalf("OnFailure ran %d times want 1", got)
	}
	for i, err := range errs {
		if !errors.Is(err, ErrRefreshFailed) || !errors.Is(err, boom) {
			t.Fatalf("waiter %d: err=%v", i, err)
		}
		var re *RefreshError
		if !errors.As(err, &re) {
			t.Fatalf("waiter %d: expected *RefreshError, got %T", i, err)
		}
	}
}

func TestRefresher_NewCycleAfterSettle(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := NewRefresher(RefresherConfig{
		Refresh: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
		Log: discardLogger(),
	})

	for i := 0; i < 3; i++ {
		if err := r.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("refresh calls=%d want 3", got)
	}
}

func TestRefresher_CancelledWaiterDoesNotCancelCycle(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var sawCancel atomic.Bool
	r := NewRefresher(RefresherConfig{
		Refresh: func(ctx context.Context) error {
			<-release
			sawCancel.Store(ctx.Err() != nil)
			return nil
		},
		Log: discardLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Refresh(ctx) }()

	if !waitPending(r, 1) {
		t.Fatalf("cycle never started")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if !r.InFlight() {
		t.Fatalf("cycle should still be running after the caller left")
	}

	late := make(chan error, 1)
	go func() { late <- r.Refresh(context.Background()) }()
	if !waitPending(r, 2) {
		t.Fatalf("late caller did not join the running cycle")
	}

	close(release)
	if err := <-late; err != nil {
		t.Fatalf("late caller err=%v", err)
	}
	if sawCancel.Load() {
		t.Fatalf("refresh context was cancelled with the first caller")
	}
}

func TestRefresher_PanicIsSettled(t *testing.T) {
	t.Parallel()

	var failures atomic.Int32
	r := NewRefresher(RefresherConfig{
		Refresh:   func(ctx context.Context) error { panic("kaboom") },
		OnFailure: func(ctx context.Context, err error) { failures.Add(1) },
		Log:       discardLogger(),
	})

	err := r.Refresh(context.Background())
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("err=%v want ErrRefreshFailed", err)
	}
	if r.InFlight() {
		t.Fatalf("in-flight marker not cleared after panic")
	}
	if failures.Load() != 1 {
		t.Fatalf("OnFailure ran %d times want 1", failures.Load())
	}
}
