package bridge

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/wallet"
)

// standardWithdrawal moves assets from a child chain back to its parent.
type standardWithdrawal struct {
	starter
}

func newStandardWithdrawal(props *Props) (TransferStarter, error) {
	transferType := entity.TransferTypeEthWithdrawal
	if !props.Asset.IsNative() {
		if props.Source.TokenBridge == nil {
			return nil, preconditionError("chain %d has no token bridge", props.Source.ChainID)
		}
		transferType = entity.TransferTypeErc20Withdrawal
	}
	return &standardWithdrawal{starter{Props: props, transferType: transferType}}, nil
}

func (s *standardWithdrawal) router() *contract.GatewayRouter {
	return contract.NewL2GatewayRouter(s.SourceClient, s.Source.TokenBridge.ChildGatewayRouter)
}

func (s *standardWithdrawal) RequiresNativeCurrencyApproval(context.Context, RequiresNativeCurrencyApprovalProps) (bool, error) {
	return false, nil
}

func (s *standardWithdrawal) ApproveNativeCurrency(context.Context, ApproveNativeCurrencyProps) (*types.Transaction, error) {
	return nil, nil
}

// childApproval resolves the child token and the gateway that burns it. ok is false
// for tokens that are burnt without an allowance.
func (s *standardWithdrawal) childApproval(ctx context.Context) (token, gateway common.Address, ok bool, err error) {
	if s.Asset.IsNative() || !s.Source.RequiresChildApproval(s.Asset.Address) {
		return common.Address{}, common.Address{}, false, nil
	}
	router := s.router()
	if s.Asset.ChildAddress != nil {
		token = *s.Asset.ChildAddress
	} else if token, err = router.CalculateL2TokenAddress(ctx, s.Asset.Address); err != nil {
		return common.Address{}, common.Address{}, false, readError("child token address", err)
	}
	gateway, err = router.GetGateway(ctx, s.Asset.Address)
	if err != nil {
		return common.Address{}, common.Address{}, false, readError("child gateway", err)
	}
	return token, gateway, true, nil
}

func (s *standardWithdrawal) RequiresTokenApproval(ctx context.Context, props RequiresTokenApprovalProps) (bool, error) {
	token, gateway, ok, err := s.childApproval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return s.allowanceBelow(ctx, token, props.OwnerAddress, gateway, props.Amount)
}

func (s *standardWithdrawal) ApproveToken(ctx context.Context, props ApproveTokenProps) (*types.Transaction, error) {
	token, gateway, ok, err := s.childApproval(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, preconditionError("token %s needs no approval to withdraw", s.Asset.Address)
	}
	return s.approve(ctx, props.Signer, token, gateway, props.Amount)
}

func (s *standardWithdrawal) Transfer(ctx context.Context, props TransferProps) (*TransferResult, error) {
	if err := s.checkTransfer(&props); err != nil {
		return nil, err
	}
	if s.Asset.IsNative() {
		arbSys := contract.NewArbSys(s.SourceClient)
		data, err := arbSys.WithdrawEthData(recipient(&props))
		if err != nil {
			return nil, err
		}
		return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(arbSys.Address()), Value: props.Amount, Data: data})
	}
	router := s.router()
	data, err := router.OutboundTransferData(s.Asset.Address, recipient(&props), props.Amount)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(router.Address()), Data: data})
}
