// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperations counts issue/return/pay_fine attempts by outcome.
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_ledger_operations_total",
			Help: "Ledger mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	FinesCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_fines_collected_total",
			Help: "Sum of fine payments recorded",
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_notifications_total",
			Help: "Issue/return notifications by kind and result",
		},
		[]string{"kind", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "library_circuit_breaker_state",
			Help: "0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_recommendations_total",
			Help: "Recommendation requests by strategy",
		},
		[]string{"strategy"},
	)

	// RecommendationFallbacks counts policy-driven fallbacks and top-ups.
	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_recommendation_fallbacks_total",
			Help: "Strategy fallbacks by source strategy, target strategy and reason",
		},
		[]string{"from", "to", "reason"},
	)

	ChatbotAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_chatbot_answers_total",
			Help: "Chatbot replies by answer kind",
		},
		[]string{"kind"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_http_requests_total",
			Help: "HTTP mirror requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_http_request_duration_seconds",
			Help:    "HTTP mirror latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
