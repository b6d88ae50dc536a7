package pending

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PendingRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "transfers",
		Subsystem: "watcher",
		Name:      "pending_records",
		Help:      "Shows the number of unresolved records seen by the last sweep, per status.",
	}, []string{"status"})
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "transfers",
		Subsystem: "watcher",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of a single reconciliation sweep.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transfers",
		Subsystem: "watcher",
		Name:      "transitions_total",
		Help:      "Record status changes applied by the watcher, per new status.",
	}, []string{"status"})
	ReconcileErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "transfers",
		Subsystem: "watcher",
		Name:      "reconcile_errors_total",
		Help:      "Records that could not be reconciled during a sweep.",
	})
)
