// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks voice turns by outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_turns_total",
			Help: "Total voice turns processed",
		},
		[]string{"status"},
	)

	// TurnStageDuration tracks per-stage pipeline duration.
	TurnStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_turn_stage_duration_seconds",
			Help:    "Duration of each voice pipeline stage",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"stage"},
	)

	// CreditsSpentTotal tracks credits debited for turns.
	CreditsSpentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_spent_total",
			Help: "Total credits debited for voice turns",
		},
	)

	// CreditsGrantedTotal tracks credits added to accounts.
	CreditsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Total credits granted to accounts",
		},
		[]string{"source"},
	)

	// CouponRedemptionsTotal tracks coupon redemption attempts by outcome.
	CouponRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_redemptions_total",
			Help: "Total coupon redemption attempts",
		},
		[]string{"status"},
	)

	// MessagesAppendedTotal tracks messages written to the history log.
	MessagesAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_appended_total",
			Help: "Total messages appended to conversation history",
		},
		[]string{"role"},
	)

	// MessageAppendFailures tracks best-effort history writes that failed.
	MessageAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "message_append_failures_total",
			Help: "Total failed conversation history writes",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordStage records the duration of one voice pipeline stage.
func RecordStage(stage string, duration float64) {
	TurnStageDuration.WithLabelValues(stage).Observe(duration)
}

// RecordTurn records a completed or failed turn.
func RecordTurn(status string) {
	TurnsTotal.WithLabelValues(status).Inc()
}
