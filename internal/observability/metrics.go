package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "water_outage"

// Metrics holds the Prometheus counters, histograms, and gauges for the query
// service and the outage monitor.
type Metrics struct {
	// Poller metrics.
	PollCycles        *prometheus.CounterVec // labels: outcome={success,fetch_error}
	PollCycleDuration prometheus.Histogram
	OutagesFetched    prometheus.Gauge
	KnownOutages      prometheus.Gauge
	NewOutages        prometheus.Counter
	Notifications     *prometheus.CounterVec // labels: outcome={success,error}
	StateSaveErrors   prometheus.Counter
	PollerRunning     prometheus.Gauge

	// Upstream metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,error}
	UpstreamDuration prometheus.Histogram
	UpstreamCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Query API metrics.
	APIRequests *prometheus.CounterVec // labels: code
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PollCycles,
		m.PollCycleDuration,
		m.OutagesFetched,
		m.KnownOutages,
		m.NewOutages,
		m.Notifications,
		m.StateSaveErrors,
		m.PollerRunning,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.UpstreamCache,
		m.APIRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		PollCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-compare-notify-persist cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		OutagesFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outages_fetched",
			Help:      "Outages returned by the most recent successful fetch.",
		}),
		KnownOutages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "known_outages",
			Help:      "Outage identifiers held in monitor state.",
		}),
		NewOutages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_outages_total",
			Help:      "Newly detected outages.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by outcome.",
		}, []string{"outcome"}),
		StateSaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_save_errors_total",
			Help:      "Failed monitor state writes.",
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 when the poller loop is active, 0 when shut down.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "ArcGIS query requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "ArcGIS query request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		UpstreamCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_cache_total",
			Help:      "Upstream response cache lookups by result.",
		}, []string{"result"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outage query API requests by response status code.",
		}, []string{"code"}),
	}
}
