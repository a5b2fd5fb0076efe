// Package metrics implements the routing core's metrics sink contract on
// top of Prometheus client_golang, using the promauto registration style
// used throughout this repo family.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_latency_seconds",
			Help:    "Latency of the public HTTP surface, labeled by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)

	httpCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_calls_total",
			Help: "Completed HTTP requests, labeled by route and status",
		},
		[]string{"route", "status"},
	)

	providerFinishedCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_finished_call_counter",
			Help: "Upstream provider calls that reached a terminal outcome (success, throttle, or failure)",
		},
		[]string{"provider", "chain"},
	)

	providerStatusCode = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_status_code_counter",
			Help: "Upstream HTTP status codes returned per provider and chain",
		},
		[]string{"provider", "chain", "status"},
	)

	providerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_latency_histogram",
			Help:    "Upstream call latency per provider and chain",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "chain"},
	)

	rateLimitedCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_rate_limited_counter",
			Help: "Upstream calls classified as rate-limited per provider and chain",
		},
		[]string{"provider", "chain"},
	)

	websocketConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_websocket_connections",
			Help: "Currently open upstream WebSocket bridges per provider",
		},
		[]string{"provider"},
	)

	weightGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_provider_weight",
			Help: "Current live selection weight per provider and chain",
		},
		[]string{"provider", "chain"},
	)
)

// Sink is the interface the routing core depends on. It is intentionally
// narrow: the core only ever writes to it.
type Sink interface {
	AddHTTPLatency(status, route string, seconds float64)
	AddHTTPCall(status, route string)
	AddProviderFinishedCall(provider, chain string)
	AddProviderStatusCode(provider, chain string, status int)
	AddProviderLatency(provider, chain string, seconds float64)
	AddRateLimitedCall(provider, chain string)
	AddWebsocketConnection(provider string)
	RemoveWebsocketConnection(provider string)
	SetProviderWeight(provider, chain string, weight uint32)
}

// Prometheus is the concrete Sink backed by the package-level collectors
// registered above.
type Prometheus struct{}

// NewPrometheus returns a Sink writing to the process's default registry.
func NewPrometheus() *Prometheus { return &Prometheus{} }

func (Prometheus) AddHTTPLatency(status, route string, seconds float64) {
	httpLatency.WithLabelValues(route, status).Observe(seconds)
}

func (Prometheus) AddHTTPCall(status, route string) {
	httpCalls.WithLabelValues(route, status).Inc()
}

func (Prometheus) AddProviderFinishedCall(provider, chain string) {
	providerFinishedCalls.WithLabelValues(provider, chain).Inc()
}

func (Prometheus) AddProviderStatusCode(provider, chain string, status int) {
	providerStatusCode.WithLabelValues(provider, chain, strconv.Itoa(status)).Inc()
}

func (Prometheus) AddProviderLatency(provider, chain string, seconds float64) {
	providerLatency.WithLabelValues(provider, chain).Observe(seconds)
}

func (Prometheus) AddRateLimitedCall(provider, chain string) {
	rateLimitedCalls.WithLabelValues(provider, chain).Inc()
}

func (Prometheus) AddWebsocketConnection(provider string) {
	websocketConnections.WithLabelValues(provider).Inc()
}

func (Prometheus) RemoveWebsocketConnection(provider string) {
	websocketConnections.WithLabelValues(provider).Dec()
}

func (Prometheus) SetProviderWeight(provider, chain string, weight uint32) {
	weightGauge.WithLabelValues(provider, chain).Set(float64(weight))
}
