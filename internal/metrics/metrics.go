// Package metrics содержит Prometheus-метрики сервиса сверки платежей.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
)

var (
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_reconciliations_total",
			Help: "Reconciliation operations by operation and error class",
		},
		[]string{"operation", "result"},
	)

	ReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_replays_total",
			Help: "Gateway deliveries answered from an already applied result",
		},
		[]string{"operation"},
	)

	ReconciliationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_reconciliation_duration_seconds",
			Help:    "Duration of reconciliation operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	NotificationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped because the buffer was full or publishing failed",
		},
	)

	NotificationsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications published to the queue",
		},
	)
)

// Observe записывает итог и длительность операции.
func Observe(operation string, started time.Time, err error) {
	ReconciliationsTotal.WithLabelValues(operation, apperr.Class(err)).Inc()
	ReconciliationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Replay отмечает ответ на повторную доставку.
func Replay(operation string) {
	ReplaysTotal.WithLabelValues(operation).Inc()
}
