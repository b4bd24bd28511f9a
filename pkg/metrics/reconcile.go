package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileJobMetrics records outcomes for periodic reconcile jobs.
type ReconcileJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewReconcileJobMetrics registers the reconcile job metrics on the provided registerer.
func NewReconcileJobMetrics(reg prometheus.Registerer) *ReconcileJobMetrics {
	if reg == nil {
		return &ReconcileJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_job_duration_seconds",
		Help:    "Duration of reconcile jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_job_success",
		Help: "Successful reconcile job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_job_failure",
		Help: "Failed reconcile job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &ReconcileJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (c *ReconcileJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *ReconcileJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *ReconcileJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
