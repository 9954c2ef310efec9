// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets. Upstream downloads can be long, hence the tail.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  prometheus.Histogram
	UpstreamResponses *prometheus.CounterVec
	UpstreamErrors    prometheus.Counter
	RelayedBytes      prometheus.Counter
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "https_forward_proxy_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "route"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "https_forward_proxy_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "route"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "https_forward_proxy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "https_forward_proxy_upstream_request_duration_seconds",
			Help:    "Time until upstream response headers were received, in seconds.",
			Buckets: defaultBuckets,
		}),
		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "https_forward_proxy_upstream_responses_total",
			Help: "Total upstream responses by status code.",
		}, []string{"status_code"}),
		UpstreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "https_forward_proxy_upstream_errors_total",
			Help: "Upstream requests that failed before a response was received.",
		}),
		RelayedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "https_forward_proxy_relayed_bytes_total",
			Help: "Response body bytes relayed to clients.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.UpstreamErrors,
		m.RelayedBytes,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true, "CONNECT": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// Route label values.
const (
	RouteForward = "forward"
	RouteOther   = "other"
)

// RouteKey is the echo context key a handler sets to claim a route label.
// The forwarding handler sets it to RouteForward so upstream paths never
// become label values.
const RouteKey = "metrics.route"

// NormalizeRoute maps a matched admin route pattern to a bounded label.
func NormalizeRoute(pattern string, adminRoutes ...string) string {
	for _, r := range adminRoutes {
		if pattern == r {
			return r
		}
	}
	return RouteOther
}
