package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes recorded on checkout_requests_total.
const (
	OutcomeSucceeded      = "succeeded"
	OutcomePartialFailure = "partial_failure"
	OutcomeRejected       = "rejected"
	OutcomeError          = "error"
)

// CheckoutMetrics records the place-order pipeline.
type CheckoutMetrics struct {
	requests           *prometheus.CounterVec
	ordersCreated      prometheus.Counter
	paymentFailures    prometheus.Counter
	sideEffectFailures *prometheus.CounterVec
	duration           prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_requests_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders persisted by checkout.",
	})
	paymentFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_payment_failures_total",
		Help: "Orders whose charge failed during checkout.",
	})
	sideEffectFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_side_effect_failures_total",
		Help: "Best-effort checkout side effects that failed.",
	}, []string{"effect"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "End-to-end checkout duration in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})
	reg.MustRegister(requests, ordersCreated, paymentFailures, sideEffectFailures, duration)
	return &CheckoutMetrics{
		requests:           requests,
		ordersCreated:      ordersCreated,
		paymentFailures:    paymentFailures,
		sideEffectFailures: sideEffectFailures,
		duration:           duration,
	}
}

// ObserveRequest records one finished checkout.
func (m *CheckoutMetrics) ObserveRequest(outcome string, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// AddOrdersCreated counts persisted orders.
func (m *CheckoutMetrics) AddOrdersCreated(n int) {
	if m == nil || m.ordersCreated == nil || n <= 0 {
		return
	}
	m.ordersCreated.Add(float64(n))
}

// IncPaymentFailure counts one failed charge.
func (m *CheckoutMetrics) IncPaymentFailure() {
	if m == nil || m.paymentFailures == nil {
		return
	}
	m.paymentFailures.Inc()
}

// IncSideEffectFailure counts one failed best-effort side effect.
func (m *CheckoutMetrics) IncSideEffectFailure(effect string) {
	if m == nil || m.sideEffectFailures == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(normalizeLabel(effect)).Inc()
}
