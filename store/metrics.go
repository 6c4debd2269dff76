package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are operational counters for the persistence layer. Optional;
// a nil *Metrics disables collection.
type Metrics struct {
	SaveAttempts prometheus.Counter
	SaveFailures prometheus.Counter
	Recoveries   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SaveAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "piggy_snapshot_save_attempts_total",
			Help: "Snapshot save operations started.",
		}),
		SaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "piggy_snapshot_save_failures_total",
			Help: "Snapshot saves that failed even after the clear-and-rewrite fallback.",
		}),
		Recoveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "piggy_snapshot_recoveries_total",
			Help: "Explicit disaster-recovery scans.",
		}),
	}
}
