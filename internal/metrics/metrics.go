// Package metrics defines the Prometheus collectors for the dive logbook and
// small helpers that record into them. Collectors register with the default
// registry through promauto; Handler exposes that registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics. route is the chi route pattern, never the raw path,
	// so /sites/{id} stays one series regardless of id.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "divelog_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "divelog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Site cache metrics.
	SiteCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "divelog_site_cache_lookups_total",
			Help: "Dive-site lookups served from the local cache (hit) or fetched upstream (miss)",
		},
		[]string{"result"},
	)

	// Upstream metrics. service is "divesites" or "geocoder".
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "divelog_upstream_request_duration_seconds",
			Help:    "Latency of outbound calls to third-party APIs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)

	// UpstreamBreakerState is 1 for the current state of each upstream's
	// circuit breaker and 0 for the others.
	UpstreamBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "divelog_upstream_breaker_state",
			Help: "Circuit breaker state per upstream (closed, half-open, open)",
		},
		[]string{"service", "state"},
	)

	ConfirmationEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "divelog_confirmation_emails_total",
			Help: "Confirmation emails by outcome (sent, failed)",
		},
		[]string{"outcome"},
	)
)

// RecordHTTPRequest records one completed request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordSiteCacheHit() {
	SiteCacheLookups.WithLabelValues("hit").Inc()
}

func RecordSiteCacheMiss() {
	SiteCacheLookups.WithLabelValues("miss").Inc()
}

// RecordUpstreamCall records the latency of one outbound call.
func RecordUpstreamCall(service string, duration time.Duration, err error) {
	UpstreamRequestDuration.WithLabelValues(service, outcome(err)).Observe(duration.Seconds())
}

// RecordBreakerState marks state as the current breaker state for service.
func RecordBreakerState(service, state string) {
	for _, s := range []string{"closed", "half-open", "open"} {
		v := 0.0
		if s == state {
			v = 1
		}
		UpstreamBreakerState.WithLabelValues(service, s).Set(v)
	}
}

func RecordConfirmationEmail(err error) {
	if err != nil {
		ConfirmationEmailsTotal.WithLabelValues("failed").Inc()
		return
	}
	ConfirmationEmailsTotal.WithLabelValues("sent").Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
