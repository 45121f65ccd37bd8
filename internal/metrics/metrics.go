// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pshare"

// Outcome label for successful operations.
const OutcomeOK = "OK"

var (
	webhookAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_attempts_total",
		Help:      "Webhook ingestion attempts by outcome code.",
	}, []string{"outcome"})

	retrievals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retrievals_total",
		Help:      "Share retrievals by outcome code.",
	}, []string{"outcome"})

	auditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Webhook attempts that could not be written to the audit log.",
	})

	sweptShares = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swept_shares_total",
		Help:      "Expired share records removed by the background sweeper.",
	})

	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Request latency",
		Buckets:   prometheus.ExponentialBucketsRange(.001, 10, 16),
	}, []string{"route", "status_code"})
)

// WebhookAttempt counts one ingestion attempt. outcome is OutcomeOK or an error code.
func WebhookAttempt(outcome string) { webhookAttempts.WithLabelValues(outcome).Inc() }

// Retrieval counts one retrieval. outcome is OutcomeOK or an error code.
func Retrieval(outcome string) { retrievals.WithLabelValues(outcome).Inc() }

func AuditFailure() { auditFailures.Inc() }

func Swept(n int) { sweptShares.Add(float64(n)) }

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(route, status string, seconds float64) {
	latency.WithLabelValues(route, status).Observe(seconds)
}
