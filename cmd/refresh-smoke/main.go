// Package main is a CI-friendly smoke test for cookie refresh against a live backend.
//
// It validates:
//   - OTP sign-in stores an identity and session cookies
//   - a stale access cookie triggers exactly one refresh for N concurrent requests
//   - every request is replayed once and succeeds
//   - a second burst needs no refresh at all
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"telecall/cmd/internal/apiclient"
	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/session"
)

func main() {
	var (
		baseURL      = flag.String("url", "http://127.0.0.1:8000", "backend base URL")
		mobile       = flag.String("mobile", "", "mobile number to sign in with")
		otp          = flag.String("otp", "", "one-time code (a test backend usually has a fixed one)")
		role         = flag.String("role", "manager", "manager or telecaller")
		accessCookie = flag.String("access-cookie", "access_token", "name of the access cookie to invalidate")
		n            = flag.Int("n", 8, "concurrent requests per burst")
		timeout      = flag.Duration("timeout", 20*time.Second, "overall timeout")
		verbose      = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	if *mobile == "" || *otp == "" {
		fatalf("-mobile and -otp are required")
	}
	if *n < 2 {
		fatalf("-n must be at least 2")
	}
	r, err := session.ParseRole(*role)
	if err != nil {
		fatalf("invalid -role: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reg := prometheus.NewRegistry()
	metrics := apiclient.NewMetrics(reg)
	store := session.NewMemoryStore()
	jar := session.NewJar()

	client, err := apiclient.New(apiclient.Options{
		BaseURL:  *baseURL,
		Identity: store,
		Jar:      jar,
		Metrics:  metrics,
	})
	if err != nil {
		fatalf("client: %v", err)
	}
	svc := callcenter.New(client, store, callcenter.Options{})

	step("sign in")
	id, err := svc.VerifyOTP(ctx, *mobile, *otp, r)
	if err != nil {
		fatalf("sign in: %v", err)
	}
	logf(*verbose, "signed in as %s (%s)", id.SubjectID, id.Role)

	if _, ok := jar.Cookie(client.BaseURL(), *accessCookie); !ok {
		fatalf("backend set no %q cookie", *accessCookie)
	}
	jar.SetCookies(client.BaseURL(), []*http.Cookie{{Name: *accessCookie, Value: "stale", Path: "/"}})

	step(fmt.Sprintf("burst of %d with a stale access cookie", *n))
	if err := burst(ctx, svc, *n); err != nil {
		fatalf("burst: %v", err)
	}
	cycles := testutil.ToFloat64(metrics.RefreshCycles.WithLabelValues("success"))
	joined := testutil.ToFloat64(metrics.RefreshJoined)
	retries := testutil.ToFloat64(metrics.Retries)
	logf(*verbose, "cycles=%v joined=%v retries=%v", cycles, joined, retries)
	if cycles != 1 {
		fatalf("want exactly 1 refresh cycle, got %v", cycles)
	}
	if retries > float64(*n) {
		fatalf("%v retries for %d requests; a request was replayed twice", retries, *n)
	}

	step("burst with fresh cookies")
	if err := burst(ctx, svc, *n); err != nil {
		fatalf("second burst: %v", err)
	}
	if got := testutil.ToFloat64(metrics.RefreshCycles.WithLabelValues("success")); got != cycles {
		fatalf("fresh cookies refreshed again (%v cycles)", got)
	}

	fmt.Println("OK")
}

func burst(ctx context.Context, svc *callcenter.Service, n int) error {
	g, gctx := errgroup.WithContext(ctx)
	for range n {
		g.Go(func() error {
			_, err := svc.Stats(gctx)
			if errors.Is(err, apiclient.ErrRefreshFailed) {
				return fmt.Errorf("refresh rejected: %w", err)
			}
			return err
		})
	}
	return g.Wait()
}

func step(name string) { fmt.Printf("==> %s\n", name) }

func logf(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Printf("    "+format+"\n", args...)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
