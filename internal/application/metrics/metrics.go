package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for lifecycle counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the panel user application lifecycle.
type Metrics struct {
	ApplicationsCreated  *prometheus.CounterVec
	ApplicationsReviewed *prometheus.CounterVec
	ProvisioningFailures prometheus.Counter
	CreateDuration       prometheus.Histogram
	ApproveDuration      prometheus.Histogram
	RejectDuration       prometheus.Histogram
}

// New registers the application metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the application metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ApplicationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "memberpanel_applications_created_total",
			Help: "Panel user applications submitted, by outcome",
		}, []string{"outcome"}),
		ApplicationsReviewed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "memberpanel_applications_reviewed_total",
			Help: "Review decisions taken, by decision and outcome",
		}, []string{"decision", "outcome"}),
		ProvisioningFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "memberpanel_account_provisioning_failures_total",
			Help: "Approvals that failed while provisioning the panel account",
		}),
		CreateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memberpanel_create_application_duration_seconds",
			Help:    "Duration of CreateApplication operations",
			Buckets: durationBuckets,
		}),
		ApproveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memberpanel_approve_application_duration_seconds",
			Help:    "Duration of ApproveApplication operations (includes provisioning)",
			Buckets: durationBuckets,
		}),
		RejectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memberpanel_reject_application_duration_seconds",
			Help:    "Duration of RejectApplication operations",
			Buckets: durationBuckets,
		}),
	}
}

func (m *Metrics) IncrementCreated(outcome string) {
	m.ApplicationsCreated.WithLabelValues(outcome).Inc()
}

// IncrementReviewed records a review; decision is "approve" or "reject".
func (m *Metrics) IncrementReviewed(decision, outcome string) {
	m.ApplicationsReviewed.WithLabelValues(decision, outcome).Inc()
}

func (m *Metrics) IncrementProvisioningFailure() {
	m.ProvisioningFailures.Inc()
}

// ObserveCreate records the duration of a CreateApplication call started at start.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveApprove(start time.Time) {
	m.ApproveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveReject(start time.Time) {
	m.RejectDuration.Observe(time.Since(start).Seconds())
}
