package bridge

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/wallet"
)

// starter holds what every strategy shares.
type starter struct {
	*Props
	transferType TransferType
}

func (s *starter) Type() TransferType {
	return s.transferType
}

func (s *starter) allowanceBelow(ctx context.Context, token, owner, spender common.Address, amount *big.Int) (bool, error) {
	allowance, err := s.Allowance(ctx, token, owner, spender, s.SourceClient)
	if err != nil {
		return false, readError("allowance", err)
	}
	return allowance.Cmp(amount) < 0, nil
}

func (s *starter) checkSigner(signer wallet.Signer) error {
	if signer == nil {
		return preconditionError("signer is not set")
	}
	if signer.ChainID() != s.Source.ChainID {
		return fmt.Errorf("signer on chain %d, transfer from %d: %w", signer.ChainID(), s.Source.ChainID, ErrNetworkMismatch)
	}
	return nil
}

func (s *starter) approve(ctx context.Context, signer wallet.Signer, token, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	if err := s.checkSigner(signer); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, preconditionError("approval amount must be positive")
	}
	data, err := contract.NewERC20(s.SourceClient, token).ApproveData(spender, amount)
	if err != nil {
		return nil, err
	}
	tx, err := signer.SendTransaction(ctx, &wallet.TxRequest{To: &token, Data: data})
	if err != nil {
		return nil, sendError("approval", err)
	}
	return tx, nil
}

func (s *starter) submit(ctx context.Context, signer wallet.Signer, req *wallet.TxRequest) (*TransferResult, error) {
	tx, err := signer.SendTransaction(ctx, req)
	if err != nil {
		return nil, sendError(string(s.transferType), err)
	}
	SubmittedTransfers.WithLabelValues(string(s.transferType), strconv.FormatUint(s.Source.ChainID, 10)).Inc()
	return &TransferResult{
		Type:              s.transferType,
		Status:            StatusPending,
		SourceTx:          tx,
		SourceClient:      s.SourceClient,
		DestinationClient: s.DestinationClient,
	}, nil
}

func (s *starter) checkTransfer(props *TransferProps) error {
	if props.Amount == nil || props.Amount.Sign() <= 0 {
		return preconditionError("amount must be positive")
	}
	if props.DestinationAddress != nil && *props.DestinationAddress == (common.Address{}) {
		return preconditionError("destination address is empty")
	}
	return s.checkSigner(props.Signer)
}

func recipient(props *TransferProps) common.Address {
	if props.DestinationAddress != nil {
		return *props.DestinationAddress
	}
	return props.Signer.Address()
}

func withPercentIncrease(v *big.Int, percent int64) *big.Int {
	res := new(big.Int).Mul(v, big.NewInt(100+percent))
	return res.Div(res, big.NewInt(100))
}
