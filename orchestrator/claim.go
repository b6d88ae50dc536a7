package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/cctp"
	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/reconcile"
	"github.com/omni/tokenbridge-transfers/wallet"
)

// ClaimCctp mints the burned USDC of an attested CCTP transfer on its destination chain.
func (o *Orchestrator) ClaimCctp(ctx context.Context, txID common.Hash) *Result {
	logger, done := o.begin(flowClaimCctp)
	defer done()

	logger = logger.WithField("tx_id", txID)
	tx, err := o.claimCctp(ctx, logger, txID)
	if err != nil {
		return o.finish(logger, flowClaimCctp, outcomeOf(err))
	}
	return o.finish(logger, flowClaimCctp, &Result{Outcome: OutcomeConfirmed, Transaction: tx})
}

func (o *Orchestrator) claimCctp(ctx context.Context, logger logging.Logger, txID common.Hash) (*entity.Transaction, error) {
	record, err := o.Store.Get(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("can't get transaction: %w", err)
	}
	if record.Type != entity.TransferTypeCctp || record.Cctp == nil {
		return nil, fmt.Errorf("%s is a %s transfer: %w", txID, record.Type, bridge.ErrPrecondition)
	}
	if record.Status.IsTerminal() {
		return nil, fmt.Errorf("%s is already resolved as %s: %w", txID, record.Status, bridge.ErrPrecondition)
	}
	if record.Status == entity.StatusCctpDefault || len(record.Cctp.MessageBytes) == 0 {
		return nil, fmt.Errorf("burn %s is not confirmed yet: %w", txID, bridge.ErrPrecondition)
	}
	attestation, err := o.attestation(ctx, record)
	if err != nil {
		return nil, err
	}
	destination, err := o.Chains.Chain(record.DestinationChainID)
	if err != nil {
		return nil, err
	}
	if destination.CCTP == nil {
		return nil, fmt.Errorf("no cctp on chain %d: %w", destination.ChainID, bridge.ErrUnsupportedChainPair)
	}

	if err = o.ensureChain(ctx, logger, destination.ChainID); err != nil {
		return nil, err
	}
	signer, err := o.Wallet.Signer(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get wallet signer: %w", err)
	}
	if signer.ChainID() != destination.ChainID {
		return nil, fmt.Errorf("signer on chain %d: %w", signer.ChainID(), bridge.ErrNetworkMismatch)
	}
	client, err := o.Clients.Get(destination.ChainID)
	if err != nil {
		return nil, err
	}
	transmitter := destination.CCTP.MessageTransmitter
	data, err := contract.NewMessageTransmitter(client, transmitter).ReceiveMessageData(record.Cctp.MessageBytes, attestation)
	if err != nil {
		return nil, err
	}
	tx, err := signer.SendTransaction(ctx, &wallet.TxRequest{To: &transmitter, Data: data})
	if err != nil {
		if bridge.IsUserRejected(err) && !errors.Is(err, bridge.ErrUserRejected) {
			return nil, fmt.Errorf("can't send receiveMessage: %w: %w", bridge.ErrUserRejected, err)
		}
		return nil, fmt.Errorf("can't send receiveMessage: %w", err)
	}
	logger.WithField("tx_hash", tx.Hash()).Info("claim sent")
	receipt, err := o.waitMined(ctx, signer, tx, "claim")
	if err != nil {
		return nil, err
	}

	now := o.now().UTC()
	received := reconcile.ReceiveMessage{Success: true, TxHash: &receipt.TxHash}
	if header, err := client.HeaderByNumber(ctx, new(big.Int).Set(receipt.BlockNumber)); err != nil {
		logger.WithError(err).Warn("can't get claim block, using local time")
	} else {
		received.Timestamp = time.Unix(int64(header.Time), 0).UTC()
	}
	next := record
	if next.Status == entity.StatusCctpPendingAttestation {
		if next, err = reconcile.Transition(next, reconcile.Attestation{Complete: true, Attestation: attestation}, now); err != nil {
			return nil, err
		}
	}
	if next, err = reconcile.Transition(next, received, now); err != nil {
		return nil, err
	}
	return o.Store.UpdateByKey(ctx, txID, entity.NewPatch(record, next))
}

func (o *Orchestrator) attestation(ctx context.Context, record *entity.Transaction) ([]byte, error) {
	if len(record.Cctp.Attestation) > 0 {
		return record.Cctp.Attestation, nil
	}
	if o.Attestations == nil || record.Cctp.AttestationHash == nil {
		return nil, fmt.Errorf("no attestation for %s: %w", record.TxID, bridge.ErrPrecondition)
	}
	att, err := o.Attestations.GetAttestation(ctx, *record.Cctp.AttestationHash)
	if errors.Is(err, cctp.ErrAttestationPending) {
		return nil, fmt.Errorf("attestation for %s is pending: %w", record.TxID, bridge.ErrPrecondition)
	}
	if err != nil {
		return nil, fmt.Errorf("can't get attestation: %w: %w", bridge.ErrTransientRPC, err)
	}
	return att.Attestation, nil
}
