package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/utils"
	"github.com/omni/tokenbridge-transfers/wallet"
)

const (
	flowTransfer  = "transfer"
	flowClaimCctp = "claim_cctp"
)

type Params struct {
	Chains       Chains
	Clients      *ethclient.Pool
	Wallet       wallet.Wallet
	Store        Store
	Confirmer    Confirmer
	Attestations AttestationSource
	Allowance    bridge.AllowanceFunc
	BurnLimit    bridge.BurnLimitFunc
	Retryable    *config.RetryableConfig
	Config       *config.OrchestratorConfig
}

// Orchestrator runs user flows end to end: chain switch, approvals, submission and
// the initial record. Independent flows may run concurrently.
type Orchestrator struct {
	logger logging.Logger
	Params
	inFlight atomic.Int32
	now      func() time.Time
}

func New(logger logging.Logger, params Params) *Orchestrator {
	if params.Confirmer == nil {
		params.Confirmer = AutoConfirmer{}
	}
	if params.Config == nil {
		params.Config = &config.OrchestratorConfig{
			SwitchTimeout:      3 * time.Second,
			SwitchPollInterval: 100 * time.Millisecond,
			ReceiptTimeout:     10 * time.Minute,
		}
	}
	return &Orchestrator{
		logger: logger,
		Params: params,
		now:    time.Now,
	}
}

// IsTransferring reports whether any flow is in progress.
func (o *Orchestrator) IsTransferring() bool {
	return o.inFlight.Load() > 0
}

func (o *Orchestrator) begin(flow string) (logging.Logger, func()) {
	o.inFlight.Add(1)
	FlowsInProgress.Inc()
	logger := o.logger.WithFields(logrus.Fields{
		"flow":    flow,
		"flow_id": uuid.NewString(),
	})
	return logger, func() {
		o.inFlight.Add(-1)
		FlowsInProgress.Dec()
	}
}

func (o *Orchestrator) finish(logger logging.Logger, flow string, res *Result) *Result {
	FlowOutcomes.WithLabelValues(flow, string(res.Outcome)).Inc()
	switch res.Outcome {
	case OutcomeConfirmed:
		logger.WithField("tx_id", res.Transaction.TxID).Info("flow confirmed")
	case OutcomeDeclined:
		logger.Info("flow declined by user")
	case OutcomeError:
		logger.WithError(res.Err).Error("flow failed")
	}
	return res
}

var errDeclined = errors.New("declined by user")

// outcomeOf maps a flow error to its result. Declined prompts and wallet rejections are not failures.
func outcomeOf(err error) *Result {
	if errors.Is(err, errDeclined) || bridge.IsUserRejected(err) {
		return &Result{Outcome: OutcomeDeclined}
	}
	return &Result{Outcome: OutcomeError, Err: err}
}

func (o *Orchestrator) prompt(ctx context.Context, fn func(context.Context, *bridge.Intent) (bool, error), intent *bridge.Intent) error {
	ok, err := fn(ctx, intent)
	if err != nil {
		return fmt.Errorf("can't prompt user: %w", err)
	}
	if !ok {
		return errDeclined
	}
	return nil
}

// ensureChain switches the wallet to chainID and waits until it reports the new chain.
// Wallets that push chain changes are awaited, others are polled.
func (o *Orchestrator) ensureChain(ctx context.Context, logger logging.Logger, chainID uint64) error {
	current, err := o.Wallet.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("can't read wallet chain: %w", err)
	}
	if current == chainID {
		return nil
	}
	logger.WithFields(logrus.Fields{
		"from_chain_id": current,
		"to_chain_id":   chainID,
	}).Info("requesting chain switch")

	var changes <-chan uint64
	if notifier, ok := o.Wallet.(wallet.ChainNotifier); ok {
		var unsubscribe func()
		changes, unsubscribe = notifier.ChainChanged()
		defer unsubscribe()
	}
	if err = o.Wallet.SwitchChain(ctx, chainID); err != nil {
		return fmt.Errorf("can't switch wallet to chain %d: %w", chainID, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.Config.SwitchTimeout)
	defer cancel()
	if changes != nil {
		o.awaitChange(waitCtx, changes, chainID)
	} else {
		o.pollChain(waitCtx, chainID)
	}

	current, err = o.Wallet.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("can't read wallet chain: %w", err)
	}
	if current != chainID {
		return fmt.Errorf("wallet is on chain %d, expected %d: %w", current, chainID, bridge.ErrNetworkMismatch)
	}
	return nil
}

func (o *Orchestrator) awaitChange(ctx context.Context, changes <-chan uint64, chainID uint64) {
	for {
		select {
		case id := <-changes:
			if id == chainID {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) pollChain(ctx context.Context, chainID uint64) {
	for {
		if id, err := o.Wallet.ChainID(ctx); err == nil && id == chainID {
			return
		}
		if utils.ContextSleep(ctx, o.Config.SwitchPollInterval) == nil {
			return
		}
	}
}

// waitMined blocks until tx is mined and fails when it reverted.
func (o *Orchestrator) waitMined(ctx context.Context, signer wallet.Signer, tx *types.Transaction, what string) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, o.Config.ReceiptTimeout)
	defer cancel()
	receipt, err := signer.WaitMined(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("can't wait for %s: %w", what, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s %s reverted: %w", what, tx.Hash(), bridge.ErrTransactionFailed)
	}
	return receipt, nil
}
