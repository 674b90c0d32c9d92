package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Every method is
// safe on a nil receiver so tests can pass nil.
type Metrics struct {
	UsersCreated prometheus.Counter

	// HTTP latency by route pattern and status class
	RequestLatency *prometheus.HistogramVec

	// OCR outcomes: accepted, rejected, failed, rate_limited, circuit_open
	OCRRequests *prometheus.CounterVec
	OCRLatency  prometheus.Histogram

	ProofsSubmitted prometheus.Counter
	AnchorOutcomes  *prometheus.CounterVec

	// Vote attempts by outcome: cast, not_eligible, duplicate
	Votes *prometheus.CounterVec

	AuditSinkFailures prometheus.Counter
}

// NewWithRegistry creates every collector and registers it on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "zkid_users_created_total",
			Help: "Total number of users created on first authentication",
		}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zkid_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"route", "status"}),
		OCRRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zkid_ocr_requests_total",
			Help: "Document OCR attempts by outcome",
		}, []string{"outcome"}),
		OCRLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "zkid_ocr_duration_seconds",
			Help:    "Round-trip latency of the OCR model call",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		ProofsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "zkid_proofs_submitted_total",
			Help: "Proofs persisted after a completed verification",
		}),
		AnchorOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zkid_chain_anchor_total",
			Help: "On-chain proof anchor attempts by outcome",
		}, []string{"outcome"}),
		Votes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zkid_votes_total",
			Help: "Vote attempts by outcome",
		}, []string{"outcome"}),
		AuditSinkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "zkid_audit_sink_failures_total",
			Help: "Audit events the broker sink failed to publish",
		}),
	}
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOCR(outcome string) {
	if m != nil {
		m.OCRRequests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveOCRLatency(d time.Duration) {
	if m != nil {
		m.OCRLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementProofsSubmitted() {
	if m != nil {
		m.ProofsSubmitted.Inc()
	}
}

func (m *Metrics) IncrementAnchor(outcome string) {
	if m != nil {
		m.AnchorOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementVote(outcome string) {
	if m != nil {
		m.Votes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementAuditSinkFailure() {
	if m != nil {
		m.AuditSinkFailures.Inc()
	}
}
