package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "gasdist"

// Metrics holds the Prometheus collectors exposed on /metrics
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	approvalSubmissions *prometheus.CounterVec
	approvalDecisions   *prometheus.CounterVec
	idempotentReplays   prometheus.Counter
	notifications       *prometheus.CounterVec
	backups             *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry together with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		approvalSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "approval",
			Name:      "submissions_total",
			Help:      "Approval requests submitted by request type.",
		}, []string{"request_type"}),
		approvalDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "approval",
			Name:      "decisions_total",
			Help:      "Approval decisions by request type and outcome.",
		}, []string{"request_type", "outcome"}),
		idempotentReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "idempotent_replays_total",
			Help:      "Write requests answered from the idempotency store.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Notifications by provider and result.",
		}, []string{"provider", "result"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "backup",
			Name:      "runs_total",
			Help:      "Backup runs by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.approvalSubmissions,
		m.approvalDecisions,
		m.idempotentReplays,
		m.notifications,
		m.backups,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request. route is the matched route pattern,
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ApprovalSubmitted counts a submitted approval request
func (m *Metrics) ApprovalSubmitted(requestType string) {
	m.approvalSubmissions.WithLabelValues(requestType).Inc()
}

// ApprovalDecided counts an approve or reject decision
func (m *Metrics) ApprovalDecided(requestType, outcome string) {
	m.approvalDecisions.WithLabelValues(requestType, outcome).Inc()
}

// IdempotentReplay counts a request answered from a stored response
func (m *Metrics) IdempotentReplay() {
	m.idempotentReplays.Inc()
}

// NotificationSent counts a delivery attempt
func (m *Metrics) NotificationSent(provider string, err error) {
	m.notifications.WithLabelValues(provider, result(err)).Inc()
}

// BackupCompleted counts a backup run
func (m *Metrics) BackupCompleted(err error) {
	m.backups.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
