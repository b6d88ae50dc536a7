package orchestrator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/reconcile"
	"github.com/omni/tokenbridge-transfers/wallet"
)

const defaultNativeCurrency = "ETH"

// Transfer runs a deposit, withdrawal, teleport or CCTP flow for the intent and
// records the submitted transfer.
func (o *Orchestrator) Transfer(ctx context.Context, intent *bridge.Intent) *Result {
	logger, done := o.begin(flowTransfer)
	defer done()

	if intent == nil {
		return o.finish(logger, flowTransfer, outcomeOf(fmt.Errorf("empty intent: %w", bridge.ErrPrecondition)))
	}
	logger = logger.WithFields(logrus.Fields{
		"source_chain_id":      intent.SourceChainID,
		"destination_chain_id": intent.DestinationChainID,
		"amount":               intent.Amount,
	})
	tx, err := o.transfer(ctx, logger, intent)
	if err != nil {
		res := outcomeOf(err)
		res.Transaction = tx
		return o.finish(logger, flowTransfer, res)
	}
	return o.finish(logger, flowTransfer, &Result{Outcome: OutcomeConfirmed, Transaction: tx})
}

func (o *Orchestrator) transfer(ctx context.Context, logger logging.Logger, intent *bridge.Intent) (*entity.Transaction, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	kind, err := bridge.Select(o.Chains, intent)
	if err != nil {
		return nil, err
	}
	logger = logger.WithField("strategy", kind)
	source, err := o.Chains.Chain(intent.SourceChainID)
	if err != nil {
		return nil, err
	}
	destination, err := o.Chains.Chain(intent.DestinationChainID)
	if err != nil {
		return nil, err
	}
	if kind == bridge.KindCctp {
		if err = o.checkBurnLimit(ctx, intent); err != nil {
			return nil, err
		}
	}

	if err = o.ensureChain(ctx, logger, source.ChainID); err != nil {
		return nil, err
	}
	signer, err := o.Wallet.Signer(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get wallet signer: %w", err)
	}
	if signer.ChainID() != source.ChainID {
		return nil, fmt.Errorf("signer on chain %d: %w", signer.ChainID(), bridge.ErrNetworkMismatch)
	}
	flowIntent := *intent
	if flowIntent.Sender == (common.Address{}) {
		flowIntent.Sender = signer.Address()
	}
	if flowIntent.Sender != signer.Address() {
		return nil, fmt.Errorf("intent sender %s is not the wallet account %s: %w", flowIntent.Sender, signer.Address(), bridge.ErrPrecondition)
	}
	intent = &flowIntent

	starter, err := o.strategy(kind, source, destination, intent.Asset)
	if err != nil {
		return nil, err
	}
	if checker, ok := starter.(bridge.RegistrationChecker); ok {
		if err = checker.CheckTokenRegistration(ctx); err != nil {
			return nil, err
		}
	}
	if err = o.approveNativeCurrency(ctx, logger, starter, signer, intent); err != nil {
		return nil, err
	}
	if !intent.Asset.IsNative() {
		if err = o.approveToken(ctx, logger, starter, signer, intent); err != nil {
			return nil, err
		}
	}
	switch kind {
	case bridge.KindStandardWithdrawal:
		err = o.prompt(ctx, o.Confirmer.PromptWithdrawal, intent)
	case bridge.KindCctp:
		err = o.prompt(ctx, o.Confirmer.PromptCctpTransfer, intent)
	}
	if err != nil {
		return nil, err
	}

	res, err := starter.Transfer(ctx, bridge.TransferProps{
		Amount:             intent.Amount,
		DestinationAddress: intent.Destination,
		Signer:             signer,
	})
	if err != nil {
		return nil, err
	}
	logger.WithField("tx_hash", res.SourceTx.Hash()).Info("transfer submitted")

	record, err := reconcile.Convert(o.convertParams(kind, res, intent, source, destination))
	if err != nil {
		return nil, fmt.Errorf("can't convert transfer result: %w", err)
	}
	if err = o.Store.Upsert(ctx, record); err != nil {
		// The transfer is already broadcast, the record is kept so it can be re-inserted.
		logger.WithError(err).WithField("record", record).Error("can't save submitted transfer")
		return record, fmt.Errorf("can't save transfer %s: %w", record.TxID, err)
	}
	return record, nil
}

func (o *Orchestrator) strategy(kind bridge.Kind, source, destination *config.ChainConfig, asset *bridge.Asset) (bridge.TransferStarter, error) {
	props := &bridge.Props{
		Source:      source,
		Destination: destination,
		Asset:       asset,
		Retryable:   o.Retryable,
		Allowance:   o.Allowance,
		BurnLimit:   o.BurnLimit,
	}
	var err error
	if props.SourceClient, err = o.Clients.Get(source.ChainID); err != nil {
		return nil, err
	}
	if props.DestinationClient, err = o.Clients.Get(destination.ChainID); err != nil {
		return nil, err
	}
	if kind == bridge.KindTeleport && destination.Parent != nil {
		if props.IntermediateClient, err = o.Clients.Get(destination.Parent.ChainID); err != nil {
			return nil, err
		}
	}
	return bridge.New(kind, props)
}

// checkBurnLimit refuses CCTP amounts at or above the limit before any approval is sent.
func (o *Orchestrator) checkBurnLimit(ctx context.Context, intent *bridge.Intent) error {
	if o.BurnLimit == nil {
		return fmt.Errorf("burn limit lookup is not configured: %w", bridge.ErrPrecondition)
	}
	limit, err := o.BurnLimit(ctx, intent.SourceChainID)
	if err != nil {
		return fmt.Errorf("can't read cctp burn limit: %w: %w", bridge.ErrTransientRPC, err)
	}
	if limit.Cmp(intent.Amount) <= 0 {
		return &bridge.BurnLimitError{Limit: limit, Decimals: intent.Asset.Decimals}
	}
	return nil
}

func (o *Orchestrator) approveNativeCurrency(ctx context.Context, logger logging.Logger, starter bridge.TransferStarter, signer wallet.Signer, intent *bridge.Intent) error {
	required, err := starter.RequiresNativeCurrencyApproval(ctx, bridge.RequiresNativeCurrencyApprovalProps{
		Amount:       intent.Amount,
		OwnerAddress: signer.Address(),
	})
	if err != nil || !required {
		return err
	}
	if err = o.prompt(ctx, o.Confirmer.PromptNativeCurrencyApproval, intent); err != nil {
		return err
	}
	tx, err := starter.ApproveNativeCurrency(ctx, bridge.ApproveNativeCurrencyProps{Signer: signer, Amount: intent.Amount})
	if err != nil || tx == nil {
		return err
	}
	logger.WithField("tx_hash", tx.Hash()).Info("native currency approval sent")
	_, err = o.waitMined(ctx, signer, tx, "native currency approval")
	return err
}

func (o *Orchestrator) approveToken(ctx context.Context, logger logging.Logger, starter bridge.TransferStarter, signer wallet.Signer, intent *bridge.Intent) error {
	required, err := starter.RequiresTokenApproval(ctx, bridge.RequiresTokenApprovalProps{
		Amount:             intent.Amount,
		OwnerAddress:       signer.Address(),
		DestinationAddress: intent.Destination,
	})
	if err != nil || !required {
		return err
	}
	if err = o.prompt(ctx, o.Confirmer.PromptTokenApproval, intent); err != nil {
		return err
	}
	tx, err := starter.ApproveToken(ctx, bridge.ApproveTokenProps{Signer: signer, Amount: intent.Amount})
	if err != nil || tx == nil {
		return err
	}
	logger.WithField("tx_hash", tx.Hash()).Info("token approval sent")
	_, err = o.waitMined(ctx, signer, tx, "token approval")
	return err
}

// convertParams orients the record on the parent/child pair regardless of the transfer direction.
func (o *Orchestrator) convertParams(kind bridge.Kind, res *bridge.TransferResult, intent *bridge.Intent, source, destination *config.ChainConfig) reconcile.ConvertParams {
	parent, child := source, destination
	if kind == bridge.KindStandardWithdrawal || (kind == bridge.KindCctp && !o.Chains.IsBaseChain(source.ChainID)) {
		parent, child = destination, source
	}
	params := reconcile.ConvertParams{
		Result:         res,
		Intent:         intent,
		ParentChainID:  parent.ChainID,
		ChildChainID:   child.ChainID,
		IsTeleport:     o.Chains.IsTeleport(source.ChainID, destination.ChainID),
		NativeCurrency: nativeCurrency(child),
		Now:            o.now().UTC(),
	}
	if kind == bridge.KindCctp {
		params.CctpSourceDomain = source.CCTP.Domain
	}
	return params
}

func nativeCurrency(chain *config.ChainConfig) string {
	if chain.NativeToken != nil && chain.NativeToken.Symbol != "" {
		return chain.NativeToken.Symbol
	}
	return defaultNativeCurrency
}
