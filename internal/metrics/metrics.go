// Package metrics collects Prometheus metrics for auth state and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fittrack/fittrack/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth store activity, state stream connections and HTTP
// requests.
type Collector struct {
	statePublishes  *prometheus.CounterVec
	profileFailures prometheus.Counter
	authEvents      *prometheus.CounterVec
	signedIn        prometheus.Gauge
	streamConns     prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		statePublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_auth_state_publishes_total",
			Help: "Auth states published to subscribers",
		}, []string{"signed_in"}),
		profileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fittrack_profile_fetch_failures_total",
			Help: "Profile lookups that failed and published without a profile",
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_auth_events_total",
			Help: "Session change events received from the auth provider",
		}, []string{"event"}),
		signedIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fittrack_auth_signed_in",
			Help: "1 when the current auth state carries a session",
		}),
		streamConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fittrack_auth_stream_connections",
			Help: "Open auth state websocket streams",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fittrack_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.statePublishes,
		c.profileFailures,
		c.authEvents,
		c.signedIn,
		c.streamConns,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordPublish(state types.AuthState) {
	signedIn := state.SignedIn()
	c.statePublishes.WithLabelValues(strconv.FormatBool(signedIn)).Inc()
	if signedIn {
		c.signedIn.Set(1)
	} else {
		c.signedIn.Set(0)
	}
}

func (c *Collector) RecordProfileFetchFailure() {
	c.profileFailures.Inc()
}

func (c *Collector) RecordAuthEvent(event types.AuthChangeEvent) {
	c.authEvents.WithLabelValues(string(event)).Inc()
}

func (c *Collector) StreamOpened() {
	c.streamConns.Inc()
}

func (c *Collector) StreamClosed() {
	c.streamConns.Dec()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
