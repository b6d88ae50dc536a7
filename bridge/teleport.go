package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/wallet"
)

// teleportDeposit moves assets from a base chain to an orbit chain two hops away in one
// source transaction. ETH rides a retryable whose child call creates the second retryable,
// tokens go through the L1 teleporter.
type teleportDeposit struct {
	starter
	rollup *config.ChainConfig
}

func newTeleportDeposit(props *Props) (TransferStarter, error) {
	rollup := props.Destination.Parent
	if rollup == nil || rollup.EthBridge == nil || props.Destination.EthBridge == nil {
		return nil, preconditionError("chain %d is not an orbit chain", props.Destination.ChainID)
	}
	if props.IntermediateClient == nil {
		return nil, preconditionError("no client for intermediate chain %d", rollup.ChainID)
	}
	transferType := entity.TransferTypeEthTeleport
	if props.Asset.IsNative() {
		if props.Destination.CustomFeeToken() != nil {
			return nil, preconditionError("eth can't be teleported to custom fee token chain %d", props.Destination.ChainID)
		}
	} else {
		if props.Source.Teleporter == nil {
			return nil, preconditionError("chain %d has no teleporter", props.Source.ChainID)
		}
		if rollup.TokenBridge == nil || props.Destination.TokenBridge == nil {
			return nil, preconditionError("no token bridge on the way to chain %d", props.Destination.ChainID)
		}
		transferType = entity.TransferTypeErc20Teleport
	}
	return &teleportDeposit{starter: starter{Props: props, transferType: transferType}, rollup: rollup}, nil
}

func (s *teleportDeposit) teleporter() *contract.L1Teleporter {
	return contract.NewL1Teleporter(s.SourceClient, s.Source.Teleporter.L1Teleporter)
}

func (s *teleportDeposit) teleportParams(ctx context.Context, to common.Address, amount *big.Int) (*contract.TeleportParams, error) {
	l2Fees, err := estimateRetryable(ctx, s.SourceClient, s.IntermediateClient, s.rollup.EthBridge.Inbox, tokenDepositCalldataLength, s.Retryable)
	if err != nil {
		return nil, err
	}
	l3Fees, err := estimateRetryable(ctx, s.IntermediateClient, s.DestinationClient, s.Destination.EthBridge.Inbox, tokenDepositCalldataLength, s.Retryable)
	if err != nil {
		return nil, err
	}
	params := &contract.TeleportParams{
		L1Token:           s.Asset.Address,
		L1l2Router:        s.rollup.TokenBridge.ParentGatewayRouter,
		L2l3RouterOrInbox: s.Destination.TokenBridge.ParentGatewayRouter,
		To:                to,
		Amount:            amount,
		GasParams: contract.TeleportGasParams{
			L2GasPriceBid:                    l2Fees.MaxFeePerGas,
			L3GasPriceBid:                    l3Fees.MaxFeePerGas,
			L2ForwarderFactoryGasLimit:       s.Retryable.GasLimit,
			L1l2FeeTokenBridgeGasLimit:       0,
			L2l3TokenBridgeGasLimit:          s.Retryable.GasLimit,
			L1l2FeeTokenBridgeSubmissionCost: new(big.Int),
			L1l2TokenBridgeSubmissionCost:    l2Fees.MaxSubmissionCost,
			L2l3TokenBridgeSubmissionCost:    l3Fees.MaxSubmissionCost,
		},
	}
	if feeToken := s.Destination.CustomFeeToken(); feeToken != nil {
		params.L3FeeTokenL1Addr = *feeToken
		params.GasParams.L1l2FeeTokenBridgeGasLimit = s.Retryable.GasLimit
		params.GasParams.L1l2FeeTokenBridgeSubmissionCost = l2Fees.MaxSubmissionCost
	}
	return params, nil
}

func (s *teleportDeposit) fees(ctx context.Context, to common.Address, amount *big.Int) (*contract.TeleportParams, *contract.TeleportFees, error) {
	params, err := s.teleportParams(ctx, to, amount)
	if err != nil {
		return nil, nil, err
	}
	fees, err := s.teleporter().DetermineTypeAndFees(ctx, params)
	if err != nil {
		return nil, nil, readError("teleport fees", err)
	}
	return params, fees, nil
}

// RequiresNativeCurrencyApproval is only true for token teleports to custom fee token
// chains, the teleporter pulls the orbit chain's gas fees in that token.
func (s *teleportDeposit) RequiresNativeCurrencyApproval(ctx context.Context, props RequiresNativeCurrencyApprovalProps) (bool, error) {
	feeToken := s.Destination.CustomFeeToken()
	if s.Asset.IsNative() || feeToken == nil {
		return false, nil
	}
	_, fees, err := s.fees(ctx, props.OwnerAddress, props.Amount)
	if err != nil {
		return false, err
	}
	return s.allowanceBelow(ctx, *feeToken, props.OwnerAddress, s.Source.Teleporter.L1Teleporter, fees.FeeTokenAmount)
}

func (s *teleportDeposit) ApproveNativeCurrency(ctx context.Context, props ApproveNativeCurrencyProps) (*types.Transaction, error) {
	feeToken := s.Destination.CustomFeeToken()
	if s.Asset.IsNative() || feeToken == nil {
		return nil, nil
	}
	if props.Signer == nil {
		return nil, preconditionError("signer is not set")
	}
	_, fees, err := s.fees(ctx, props.Signer.Address(), props.Amount)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, props.Signer, *feeToken, s.Source.Teleporter.L1Teleporter, fees.FeeTokenAmount)
}

func (s *teleportDeposit) RequiresTokenApproval(ctx context.Context, props RequiresTokenApprovalProps) (bool, error) {
	if s.Asset.IsNative() {
		return false, nil
	}
	return s.allowanceBelow(ctx, s.Asset.Address, props.OwnerAddress, s.Source.Teleporter.L1Teleporter, props.Amount)
}

func (s *teleportDeposit) ApproveToken(ctx context.Context, props ApproveTokenProps) (*types.Transaction, error) {
	if s.Asset.IsNative() {
		return nil, preconditionError("native currency has no token approval")
	}
	return s.approve(ctx, props.Signer, s.Asset.Address, s.Source.Teleporter.L1Teleporter, props.Amount)
}

func (s *teleportDeposit) Transfer(ctx context.Context, props TransferProps) (*TransferResult, error) {
	if err := s.checkTransfer(&props); err != nil {
		return nil, err
	}
	if s.Asset.IsNative() {
		return s.transferNative(ctx, &props)
	}
	params, fees, err := s.fees(ctx, recipient(&props), props.Amount)
	if err != nil {
		return nil, err
	}
	teleporter := s.teleporter()
	data, err := teleporter.TeleportData(params)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(teleporter.Address()), Value: fees.EthAmount, Data: data})
}

func (s *teleportDeposit) transferNative(ctx context.Context, props *TransferProps) (*TransferResult, error) {
	to := recipient(props)
	l3Fees, err := estimateRetryable(ctx, s.IntermediateClient, s.DestinationClient, s.Destination.EthBridge.Inbox, 0, s.Retryable)
	if err != nil {
		return nil, err
	}
	inner, err := contract.NewInbox(s.IntermediateClient, s.Destination.EthBridge.Inbox).CreateRetryableTicketData(&contract.RetryableTicket{
		To:                to,
		CallValue:         props.Amount,
		MaxSubmissionCost: l3Fees.MaxSubmissionCost,
		ExcessFeeRefund:   to,
		CallValueRefund:   to,
		GasLimit:          l3Fees.GasLimit,
		MaxFeePerGas:      l3Fees.MaxFeePerGas,
	})
	if err != nil {
		return nil, err
	}
	l2Fees, err := estimateRetryable(ctx, s.SourceClient, s.IntermediateClient, s.rollup.EthBridge.Inbox, len(inner), s.Retryable)
	if err != nil {
		return nil, err
	}
	l2CallValue := new(big.Int).Add(props.Amount, l3Fees.Deposit())
	inbox := contract.NewInbox(s.SourceClient, s.rollup.EthBridge.Inbox)
	outer, err := inbox.CreateRetryableTicketData(&contract.RetryableTicket{
		To:                s.Destination.EthBridge.Inbox,
		CallValue:         l2CallValue,
		MaxSubmissionCost: l2Fees.MaxSubmissionCost,
		ExcessFeeRefund:   to,
		CallValueRefund:   to,
		GasLimit:          l2Fees.GasLimit,
		MaxFeePerGas:      l2Fees.MaxFeePerGas,
		Data:              inner,
	})
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Add(l2CallValue, l2Fees.Deposit())
	return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(inbox.Address()), Value: value, Data: outer})
}
