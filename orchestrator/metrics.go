package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FlowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transfers",
		Subsystem: "orchestrator",
		Name:      "flow_outcomes_total",
		Help:      "Finished flows by kind and outcome.",
	}, []string{"flow", "outcome"})
	FlowsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "transfers",
		Subsystem: "orchestrator",
		Name:      "flows_in_progress",
		Help:      "Shows the number of flows currently waiting on the wallet or the chain.",
	})
)
