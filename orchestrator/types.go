package orchestrator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/cctp"
	"github.com/omni/tokenbridge-transfers/entity"
)

type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeDeclined  Outcome = "declined"
	OutcomeError     Outcome = "error"
)

// Result is the discriminated outcome of a flow. Transaction is set for confirmed
// flows, Err for failed ones. A declined flow carries neither. A failed flow whose
// transfer was broadcast but not saved carries both.
type Result struct {
	Outcome     Outcome
	Transaction *entity.Transaction
	Err         error
}

// Confirmer asks the user before every step that moves funds or grants allowances.
type Confirmer interface {
	PromptNativeCurrencyApproval(ctx context.Context, intent *bridge.Intent) (bool, error)
	PromptTokenApproval(ctx context.Context, intent *bridge.Intent) (bool, error)
	PromptWithdrawal(ctx context.Context, intent *bridge.Intent) (bool, error)
	PromptCctpTransfer(ctx context.Context, intent *bridge.Intent) (bool, error)
}

// AutoConfirmer accepts every prompt.
type AutoConfirmer struct{}

func (AutoConfirmer) PromptNativeCurrencyApproval(context.Context, *bridge.Intent) (bool, error) {
	return true, nil
}

func (AutoConfirmer) PromptTokenApproval(context.Context, *bridge.Intent) (bool, error) {
	return true, nil
}

func (AutoConfirmer) PromptWithdrawal(context.Context, *bridge.Intent) (bool, error) {
	return true, nil
}

func (AutoConfirmer) PromptCctpTransfer(context.Context, *bridge.Intent) (bool, error) {
	return true, nil
}

// Chains is the part of network.Registry the flows depend on.
type Chains interface {
	bridge.Classifier
	IsTeleport(source, destination uint64) bool
}

// Store is the part of pending.Store the flows write to.
type Store interface {
	Upsert(ctx context.Context, tx *entity.Transaction) error
	Get(ctx context.Context, txID common.Hash) (*entity.Transaction, error)
	UpdateByKey(ctx context.Context, txID common.Hash, patch *entity.TransactionPatch) (*entity.Transaction, error)
}

type AttestationSource interface {
	GetAttestation(ctx context.Context, messageHash common.Hash) (*cctp.Attestation, error)
}
