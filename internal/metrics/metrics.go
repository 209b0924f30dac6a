package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bmg_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bmg_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bmg_subscriptions_created_total",
			Help: "Total number of pending subscriptions created",
		},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bmg_payments_total",
			Help: "Total number of payment callbacks by outcome",
		},
		[]string{"outcome"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bmg_settlements_total",
			Help: "Total number of settlement transitions",
		},
		[]string{"action"},
	)

	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bmg_audit_events_total",
			Help: "Total number of audit events by outcome",
		},
		[]string{"outcome"},
	)

	AuditQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bmg_audit_queue_length",
			Help: "Current length of the audit event queue",
		},
	)

	NotifyQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bmg_notify_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSubscriptionCreated() {
	SubscriptionsCreatedTotal.Inc()
}

// outcome: completed, failed, duplicate
func RecordPayment(outcome string) {
	PaymentsTotal.WithLabelValues(outcome).Inc()
}

// action: created, processed
func RecordSettlement(action string) {
	SettlementsTotal.WithLabelValues(action).Inc()
}

// outcome: enqueued, processed, retried, dead
func RecordAuditEvent(outcome string) {
	AuditEventsTotal.WithLabelValues(outcome).Inc()
}
