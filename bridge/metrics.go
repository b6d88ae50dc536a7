package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var SubmittedTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "transfers",
	Subsystem: "bridge",
	Name:      "submitted_total",
	Help:      "Transfers broadcast to the source chain.",
}, []string{"type", "source_chain_id"})
