package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertStuckTransfer = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "alert",
		Subsystem: "transfers",
		Name:      "stuck_transfer",
		Help:      "Shows unresolved transfers older than the threshold, valued by age in seconds.",
	}, []string{"chain_id", "tx_hash", "type", "status"})
	AlertUnclaimedCctp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "alert",
		Subsystem: "transfers",
		Name:      "unclaimed_cctp",
		Help:      "Shows attested CCTP transfers that were not received on the destination chain yet.",
	}, []string{"chain_id", "tx_hash", "destination_chain_id"})
	AlertUnredeemedRetryable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "alert",
		Subsystem: "transfers",
		Name:      "unredeemed_retryable",
		Help:      "Shows deposits whose retryable ticket was created but not redeemed.",
	}, []string{"chain_id", "tx_hash", "ticket_id"})
)
