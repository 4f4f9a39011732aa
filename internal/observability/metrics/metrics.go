package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics exposes counters/histograms for calls to the ClinikPe API.
type UpstreamMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinikpe",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total ClinikPe API requests by route and status code (0 = network failure)",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinikpe",
			Subsystem: "upstream",
			Name:      "request_latency_seconds",
			Help:      "Latency of ClinikPe API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency)
	return m
}

func (m *UpstreamMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(seconds)
}

// DashboardMetrics covers BFF-side behavior: discarded stale list loads,
// notifications shown to users and optimistic list outcomes.
type DashboardMetrics struct {
	staleDiscarded *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	boardOutcomes  *prometheus.CounterVec
}

func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	m := &DashboardMetrics{
		staleDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinikpe",
			Subsystem: "dashboard",
			Name:      "stale_responses_discarded_total",
			Help:      "List responses dropped because a newer load was issued for the same page",
		}, []string{"page"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinikpe",
			Subsystem: "dashboard",
			Name:      "notifications_total",
			Help:      "Notifications emitted to dashboard users",
		}, []string{"level"}),
		boardOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinikpe",
			Subsystem: "dashboard",
			Name:      "board_mutations_total",
			Help:      "Optimistic reorder/delete outcomes on reorderable lists",
		}, []string{"kind", "action", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.staleDiscarded, m.notifications, m.boardOutcomes)
	return m
}

func (m *DashboardMetrics) ObserveStale(page string) {
	if m == nil {
		return
	}
	m.staleDiscarded.WithLabelValues(page).Inc()
}

func (m *DashboardMetrics) ObserveNotification(level string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(level).Inc()
}

func (m *DashboardMetrics) ObserveBoard(kind, action, outcome string) {
	if m == nil {
		return
	}
	m.boardOutcomes.WithLabelValues(kind, action, outcome).Inc()
}
