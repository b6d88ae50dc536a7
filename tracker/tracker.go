package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/omni/tokenbridge-transfers/cctp"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/reconcile"
)

var ErrMissingEvent = errors.New("expected event not found in receipt")

// Chains resolves chain configs, network.Registry implements it.
type Chains interface {
	Chain(id uint64) (*config.ChainConfig, error)
	IsGrandchild(ancestor, descendant uint64) bool
}

// AttestationSource is the part of the attestation service client used for tracking.
type AttestationSource interface {
	GetAttestation(ctx context.Context, messageHash common.Hash) (*cctp.Attestation, error)
}

// Tracker reads the chains involved in a transfer and reports what happened to it so far.
type Tracker struct {
	logger       logging.Logger
	chains       Chains
	clients      *ethclient.Pool
	attestations AttestationSource
}

func New(logger logging.Logger, chains Chains, clients *ethclient.Pool, attestations AttestationSource) *Tracker {
	return &Tracker{
		logger:       logger,
		chains:       chains,
		clients:      clients,
		attestations: attestations,
	}
}

// Evidence returns the observations for the record, in the order they must be applied.
// Evidence gathered before a failure is returned along with the error.
func (t *Tracker) Evidence(ctx context.Context, tx *entity.Transaction) ([]reconcile.Evidence, error) {
	source, err := t.clients.Get(tx.SourceChainID)
	if err != nil {
		return nil, err
	}
	receipt, err := source.TransactionReceiptByHash(ctx, tx.TxID)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't get source receipt: %w", err)
	}

	switch {
	case tx.Status.IsCctp():
		return t.cctpEvidence(ctx, tx, receipt)
	case tx.IsWithdrawal():
		return t.withdrawalEvidence(ctx, tx, receipt)
	default:
		return t.depositEvidence(ctx, tx, receipt)
	}
}

func sourceReceipt(receipt *types.Receipt) reconcile.SourceReceipt {
	return reconcile.SourceReceipt{
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}
}

// childReceipt returns a nil receipt while the transaction is unknown to the chain.
func childReceipt(ctx context.Context, client ethclient.Client, hash common.Hash) (*types.Receipt, error) {
	receipt, err := client.TransactionReceiptByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't get receipt %s: %w", hash, err)
	}
	return receipt, nil
}

func isRevert(err error) bool {
	var dataErr rpc.DataError
	return errors.As(err, &dataErr) || strings.Contains(err.Error(), "execution reverted")
}

func hashPtr(h common.Hash) *common.Hash {
	return &h
}
