package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every collector the service exposes on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// ProviderRequests counts calls to the weather provider.
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marine_forecast_provider_requests_total",
			Help: "Requests sent to the weather provider.",
		},
		[]string{"kind", "outcome"}, // kind: forecast/usage, outcome: success/error
	)

	// ProviderLatency records provider round-trip time including retries.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marine_forecast_provider_latency_seconds",
			Help:    "Latency of weather provider requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// RecordsPublished counts forecast periods published to the bus.
	RecordsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marine_forecast_records_published_total",
			Help: "Processed forecast records published per package and cadence.",
		},
		[]string{"package", "cadence"},
	)

	// MovingFallbacks counts moving-vessel cycles that fell back to a stationary fetch.
	MovingFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marine_forecast_moving_fallbacks_total",
			Help: "Moving-vessel forecast cycles that fell back to a stationary fetch.",
		},
	)

	// QuotaUsage is the last computed usage percentage of the estimated quota.
	QuotaUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marine_forecast_quota_usage_percent",
			Help: "Provider credit usage as a percentage of the estimated monthly quota.",
		},
	)

	// SessionState is 1 for the current session state and 0 for the others.
	SessionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marine_forecast_session_state",
			Help: "Current session lifecycle state (1 = current).",
		},
		[]string{"state"},
	)
)

func init() {
	Registry.MustRegister(
		ProviderRequests,
		ProviderLatency,
		RecordsPublished,
		MovingFallbacks,
		QuotaUsage,
		SessionState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Outcome maps an error to the "outcome" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
