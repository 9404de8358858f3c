package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inbound request metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotuspetal_gateway_requests_total",
			Help: "Total number of gateway requests by route and response status",
		},
		[]string{"route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lotuspetal_gateway_request_duration_seconds",
			Help:    "Duration of gateway requests in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"route"},
	)

	ValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotuspetal_gateway_validation_errors_total",
			Help: "Requests rejected before any hub call",
		},
		[]string{"route"},
	)

	// Hub call metrics
	UpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotuspetal_gateway_upstream_calls_total",
			Help: "Total number of hub calls by route and outcome",
		},
		[]string{"route", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lotuspetal_gateway_upstream_duration_seconds",
			Help:    "Duration of hub calls in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"route"},
	)

	// Event store metrics
	EventsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotuspetal_gateway_events_upserted_total",
			Help: "Sourcing events written by source",
		},
		[]string{"source"},
	)

	EventIngestErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lotuspetal_gateway_event_ingest_errors_total",
			Help: "Sourcing event messages that could not be stored",
		},
	)
)

// RecordRequest records one completed inbound request.
func RecordRequest(route string, status int, seconds float64) {
	RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordUpstreamCall records one hub call. outcome is "ok" or an error kind.
func RecordUpstreamCall(route, outcome string, seconds float64) {
	UpstreamCalls.WithLabelValues(route, outcome).Inc()
	UpstreamDuration.WithLabelValues(route).Observe(seconds)
}
