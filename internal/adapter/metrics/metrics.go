package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics holds all Prometheus metrics for the notification worker.
type PipelineMetrics struct {
	EntriesTotal       *prometheus.CounterVec
	NotificationsTotal prometheus.Counter
	ChannelAttempts    *prometheus.CounterVec
	EmailsTotal        *prometheus.CounterVec
	ReclaimedTotal     *prometheus.CounterVec
	ConsumerRestarts   *prometheus.CounterVec
}

// NewPipelineMetrics initializes and registers the Prometheus metrics with
// the given registerer. Tests pass a fresh registry to avoid duplicate
// registration.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)

	return &PipelineMetrics{
		EntriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffstream",
			Subsystem: "consumer",
			Name:      "entries_total",
			Help:      "Total number of stream entries by stream and outcome.",
		}, []string{"stream", "outcome"}), // outcome: acked, failed
		NotificationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "staffstream",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total number of notification records created.",
		}),
		ChannelAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffstream",
			Subsystem: "notify",
			Name:      "channel_attempts_total",
			Help:      "Total number of per-channel delivery attempts by channel and status.",
		}, []string{"channel", "status"}), // status: ok, error
		EmailsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffstream",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Total number of individual email sends by status.",
		}, []string{"status"}), // status: sent, failed
		ReclaimedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffstream",
			Subsystem: "consumer",
			Name:      "reclaimed_entries_total",
			Help:      "Total number of stale pending entries reclaimed for reprocessing.",
		}, []string{"stream"}),
		ConsumerRestarts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffstream",
			Subsystem: "consumer",
			Name:      "restarts_total",
			Help:      "Total number of supervised consumer restarts after a crash.",
		}, []string{"task"}),
	}
}
