package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the client-side collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests       *prometheus.CounterVec
	RequestSeconds prometheus.Histogram
	Retries        prometheus.Counter
	RefreshCycles  *prometheus.CounterVec
	RefreshWaiters prometheus.Gauge
	RefreshJoined  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "telecall_client_requests_total",
			Help: "Backend requests by method and status class",
		}, []string{"method", "class"}),
		RequestSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "telecall_client_request_duration_seconds",
			Help:    "Backend request latency",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		Retries: f.NewCounter(prometheus.CounterOpts{
			Name: "telecall_client_retries_total",
			Help: "Requests re-sent after a successful refresh",
		}),
		RefreshCycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "telecall_refresh_cycles_total",
			Help: "Refresh cycles by result",
		}, []string{"result"}),
		RefreshWaiters: f.NewGauge(prometheus.GaugeOpts{
			Name: "telecall_refresh_waiters",
			Help: "Requests currently waiting on the in-flight refresh",
		}),
		RefreshJoined: f.NewCounter(prometheus.CounterOpts{
			Name: "telecall_refresh_joined_total",
			Help: "Requests that joined an already running refresh instead of starting one",
		}),
	}
}

func (m *Metrics) observeRequest(method, class string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, class).Inc()
	m.RequestSeconds.Observe(seconds)
}

func (m *Metrics) retry() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}

func (m *Metrics) cycle(result string) {
	if m == nil {
		return
	}
	m.RefreshCycles.WithLabelValues(result).Inc()
}

func (m *Metrics) waiters(n int) {
	if m == nil {
		return
	}
	m.RefreshWaiters.Set(float64(n))
}

func (m *Metrics) joined() {
	if m == nil {
		return
	}
	m.RefreshJoined.Inc()
}
