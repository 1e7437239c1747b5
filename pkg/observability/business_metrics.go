package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Square API call metrics
	squareRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "square_requests_total",
		Help: "Total Square API requests",
	}, []string{
		"endpoint", // create_order, create_payment, ...
		"outcome",  // success, transport, domain, empty_body, unparseable, missing_field, circuit_open
	})

	squareRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "square_request_duration_seconds",
		Help:    "Duration of Square API requests",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{
		"endpoint",
	})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "square_circuit_breaker_state",
		Help: "Square circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{
		"name",
	})

	// Order reconciliation metrics
	orderReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_reconciliations_total",
		Help: "Order total reconciliations by outcome",
	}, []string{
		"action", // none, line_item, discount, skipped, unavailable
	})

	orderAdjustmentMinorUnits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_adjustment_minor_units",
		Help:    "Absolute offset between Square's calculated total and the expected charge",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 100, 1000},
	})

	// Payment metrics
	paymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total payment attempts",
	}, []string{
		"status",  // completed, approved, failed
		"partial", // true, false
	})

	paymentAmountMinor = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_amount_minor_total",
		Help: "Total charged amount in minor units (completed payments only)",
	}, []string{
		"currency",
	})

	paymentProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "payment_processing_duration_seconds",
		Help: "End-to-end time to process a payment attempt",
		// Buckets: 100ms to 30s (calculate + create order + create payment + complete)
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"status",
	})

	orderCancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_cancellations_total",
		Help: "Abandoned order cancellations",
	}, []string{
		"status", // canceled, failed, skipped
	})
)

// RecordSquareRequest records one Square API call
func RecordSquareRequest(endpoint, outcome string, duration float64) {
	squareRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	squareRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

// SetCircuitBreakerState publishes a circuit breaker state
func SetCircuitBreakerState(name string, state int) {
	circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordReconciliation records the outcome of an order total reconciliation
func RecordReconciliation(action string, offset int64) {
	orderReconciliationsTotal.WithLabelValues(action).Inc()
	if offset < 0 {
		offset = -offset
	}
	orderAdjustmentMinorUnits.Observe(float64(offset))
}

// RecordPayment records a payment attempt
// Only completed payments count towards the charged amount
func RecordPayment(status string, partial bool, amountMinor int64, currency string, duration float64) {
	partialLabel := "false"
	if partial {
		partialLabel = "true"
	}
	paymentAttemptsTotal.WithLabelValues(status, partialLabel).Inc()
	paymentProcessingDuration.WithLabelValues(status).Observe(duration)

	if status == "completed" {
		paymentAmountMinor.WithLabelValues(currency).Add(float64(amountMinor))
	}
}

// RecordOrderCancellation records an abandoned order cancellation
func RecordOrderCancellation(status string) {
	orderCancellationsTotal.WithLabelValues(status).Inc()
}
