package reconcile

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Evidence is a single observation about the progress of a submitted transfer.
type Evidence interface {
	evidence()
}

// SourceReceipt is the receipt of the transaction submitted on the source chain.
type SourceReceipt struct {
	Success     bool
	BlockNumber uint64
	// MessageBytes and AttestationHash are extracted from the CCTP MessageSent event.
	MessageBytes    []byte
	AttestationHash *common.Hash
}

type RetryableState int

const (
	RetryableNotYetCreated RetryableState = iota
	RetryableCreated
	RetryableRedeemed
	RetryableFundsDeposited
	RetryableCreationFailed
	RetryableExpired
	// RetryableFailed means the child chain executed the deposit and it reverted.
	RetryableFailed
)

var retryableStateNames = map[RetryableState]string{
	RetryableNotYetCreated:  "not_yet_created",
	RetryableCreated:        "created",
	RetryableRedeemed:       "redeemed",
	RetryableFundsDeposited: "funds_deposited",
	RetryableCreationFailed: "creation_failed",
	RetryableExpired:        "expired",
	RetryableFailed:         "failed",
}

func (s RetryableState) String() string {
	if name, ok := retryableStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// RetryableStatus describes the child chain leg of a deposit.
type RetryableStatus struct {
	State RetryableState
	// TicketID identifies the retryable ticket or the eth deposit transaction on the child chain.
	TicketID *common.Hash
	// ChildTxID is the child chain transaction that delivered the funds.
	ChildTxID *common.Hash
}

type WithdrawalState int

const (
	WithdrawalUnconfirmed WithdrawalState = iota
	WithdrawalConfirmed
	WithdrawalExecuted
)

// WithdrawalStatus describes the outbox leg of a withdrawal.
type WithdrawalStatus struct {
	State WithdrawalState
	// Position is the outbox position of the L2ToL1Tx event, used as the record's unique id.
	Position *common.Hash
	// ExecutionTxID is the parent chain transaction that executed the withdrawal, when known.
	ExecutionTxID *common.Hash
}

// Attestation is the attestation service answer for a CCTP message.
type Attestation struct {
	Complete    bool
	Attestation []byte
}

// ReceiveMessage is the destination chain receipt of a CCTP receiveMessage call.
type ReceiveMessage struct {
	Success   bool
	TxHash    *common.Hash
	Timestamp time.Time
}

func (SourceReceipt) evidence()    {}
func (RetryableStatus) evidence()  {}
func (WithdrawalStatus) evidence() {}
func (Attestation) evidence()      {}
func (ReceiveMessage) evidence()   {}
