// Package metrics provides Prometheus metrics for the permits backend
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the permits backend.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Workflow metrics
	TransitionsTotal      *prometheus.CounterVec
	BatchSubmissionsTotal *prometheus.CounterVec
	BatchSize             *prometheus.HistogramVec
	BatchCommitDuration   *prometheus.HistogramVec
	LedgerEntries         prometheus.Gauge
	AuditWriteFailures    prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permits_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "permits_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.TransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permits_workflow_transitions_total",
			Help: "Applications moved between stages, by origin stage and resulting status",
		},
		[]string{"from_stage", "status"},
	)

	m.BatchSubmissionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permits_batch_submissions_total",
			Help: "Batch submissions by stage and outcome (committed, blocked, partial)",
		},
		[]string{"stage", "outcome"},
	)

	m.BatchSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "permits_batch_size",
			Help:    "Number of applications in a committed batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"stage"},
	)

	m.BatchCommitDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "permits_batch_commit_duration_seconds",
			Help:    "Duration of batch commits in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"stage"},
	)

	m.LedgerEntries = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "permits_review_ledger_entries",
			Help: "Open reviewer ledger entries",
		},
	)

	m.AuditWriteFailures = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "permits_audit_write_failures_total",
			Help: "Audit entries that could not be written",
		},
	)

	return m
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTransition records one application leaving fromStage with the given status
func (m *Metrics) RecordTransition(fromStage int, status string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(strconv.Itoa(fromStage), status).Inc()
}

// RecordBatch records a batch submission outcome
func (m *Metrics) RecordBatch(stage int, outcome string, size int, duration time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(stage)
	m.BatchSubmissionsTotal.WithLabelValues(label, outcome).Inc()
	if outcome == "committed" {
		m.BatchSize.WithLabelValues(label).Observe(float64(size))
		m.BatchCommitDuration.WithLabelValues(label).Observe(duration.Seconds())
	}
}

// SetLedgerEntries updates the open ledger entry gauge
func (m *Metrics) SetLedgerEntries(n int) {
	if m == nil {
		return
	}
	m.LedgerEntries.Set(float64(n))
}

// IncAuditWriteFailure counts a dropped audit entry
func (m *Metrics) IncAuditWriteFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}
