package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SchedulerMetrics counts auto top-up scheduler activity.
type SchedulerMetrics struct {
	Runs          prometheus.Counter
	GoalsToppedUp prometheus.Counter
}

// NewSchedulerMetrics registers scheduler counters on the given registerer.
func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	factory := promauto.With(reg)
	return &SchedulerMetrics{
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "piggy_topup_runs_total",
			Help: "Number of auto top-up catch-up passes executed.",
		}),
		GoalsToppedUp: factory.NewCounter(prometheus.CounterOpts{
			Name: "piggy_topup_goals_total",
			Help: "Number of goals that received auto top-up money.",
		}),
	}
}
