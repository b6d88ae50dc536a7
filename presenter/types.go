package presenter

import (
	"github.com/omni/tokenbridge-transfers/entity"
)

type ChainInfo struct {
	ChainID             uint64   `json:"chainId"`
	Name                string   `json:"name"`
	ParentChainID       *uint64  `json:"parentChainId,omitempty"`
	Testnet             bool     `json:"testnet"`
	Nova                bool     `json:"nova,omitempty"`
	Custom              bool     `json:"custom,omitempty"`
	NativeCurrency      string   `json:"nativeCurrency"`
	Cctp                bool     `json:"cctp"`
	ConfirmPeriodBlocks uint64   `json:"confirmPeriodBlocks,omitempty"`
	DestinationChainIDs []uint64 `json:"destinationChainIds"`
}

type TransactionInfo struct {
	*entity.Transaction
	Pending    bool   `json:"pending"`
	SourceLink string `json:"sourceLink,omitempty"`
	ChildLink  string `json:"childLink,omitempty"`
}

type StreamMessage struct {
	Event       string             `json:"event"`
	Transaction *TransactionInfo   `json:"transaction,omitempty"`
	Snapshot    []*TransactionInfo `json:"snapshot,omitempty"`
}

const (
	StreamEventSnapshot = "snapshot"
	StreamEventUpdate   = "update"
)
