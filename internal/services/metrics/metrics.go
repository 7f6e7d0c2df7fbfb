// Package metrics exposes Prometheus counters for the cleanup pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters incremented by the retention services.
type Metrics struct {
	CleanupRuns    *prometheus.CounterVec
	ChatsDeleted   prometheus.Counter
	CleanupSkipped prometheus.Counter
	CleanupErrors  prometheus.Counter
}

// New registers the cleanup metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CleanupRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbackend",
			Subsystem: "cleanup",
			Name:      "runs_total",
			Help:      "Cleanup runs by trigger source.",
		}, []string{"trigger"}),
		ChatsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chatbackend",
			Subsystem: "cleanup",
			Name:      "chats_deleted_total",
			Help:      "Chats removed by cleanup runs.",
		}),
		CleanupSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chatbackend",
			Subsystem: "cleanup",
			Name:      "skipped_total",
			Help:      "Cleanup runs skipped because one was already in flight for the user.",
		}),
		CleanupErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chatbackend",
			Subsystem: "cleanup",
			Name:      "errors_total",
			Help:      "Per-chat deletion failures during cleanup runs.",
		}),
	}
}
