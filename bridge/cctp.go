package bridge

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/wallet"
)

// cctpTransfer burns native USDC on the source chain to be minted on the destination.
type cctpTransfer struct {
	starter
}

func newCctpTransfer(props *Props) (TransferStarter, error) {
	if props.Source.CCTP == nil || props.Destination.CCTP == nil {
		return nil, preconditionError("cctp is not deployed on %d -> %d", props.Source.ChainID, props.Destination.ChainID)
	}
	if props.BurnLimit == nil {
		return nil, preconditionError("burn limit lookup is not set")
	}
	return &cctpTransfer{starter{Props: props, transferType: entity.TransferTypeCctp}}, nil
}

func (s *cctpTransfer) RequiresNativeCurrencyApproval(context.Context, RequiresNativeCurrencyApprovalProps) (bool, error) {
	return false, nil
}

func (s *cctpTransfer) ApproveNativeCurrency(context.Context, ApproveNativeCurrencyProps) (*types.Transaction, error) {
	return nil, nil
}

func (s *cctpTransfer) RequiresTokenApproval(ctx context.Context, props RequiresTokenApprovalProps) (bool, error) {
	return s.allowanceBelow(ctx, s.Source.CCTP.USDC, props.OwnerAddress, s.Source.CCTP.TokenMessenger, props.Amount)
}

func (s *cctpTransfer) ApproveToken(ctx context.Context, props ApproveTokenProps) (*types.Transaction, error) {
	return s.approve(ctx, props.Signer, s.Source.CCTP.USDC, s.Source.CCTP.TokenMessenger, props.Amount)
}

// Transfer re-reads the burn limit right before burning, it may have changed
// since the amount was validated.
func (s *cctpTransfer) Transfer(ctx context.Context, props TransferProps) (*TransferResult, error) {
	if err := s.checkTransfer(&props); err != nil {
		return nil, err
	}
	limit, err := s.BurnLimit(ctx, s.Source.ChainID)
	if err != nil {
		return nil, readError("cctp burn limit", err)
	}
	if limit.Cmp(props.Amount) <= 0 {
		return nil, &BurnLimitError{Limit: limit, Decimals: s.Asset.Decimals}
	}
	messenger := contract.NewTokenMessenger(s.SourceClient, s.Source.CCTP.TokenMessenger)
	data, err := messenger.DepositForBurnData(props.Amount, s.Destination.CCTP.Domain, recipient(&props), s.Source.CCTP.USDC)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(messenger.Address()), Data: data})
}
