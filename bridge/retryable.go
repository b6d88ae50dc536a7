package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/ethclient"
)

// tokenDepositCalldataLength bounds the size of the gateway's finalizeInboundTransfer
// call executed on the child chain, which includes the encoded token metadata.
const tokenDepositCalldataLength = 1024

// retryableFees are the child chain execution parameters of a retryable ticket.
type retryableFees struct {
	MaxSubmissionCost *big.Int
	GasLimit          *big.Int
	MaxFeePerGas      *big.Int
}

// Deposit is the amount to send along with the ticket to pay for its execution.
func (f *retryableFees) Deposit() *big.Int {
	res := new(big.Int).Mul(f.GasLimit, f.MaxFeePerGas)
	return res.Add(res, f.MaxSubmissionCost)
}

// estimateRetryable prices a ticket created through inbox on the parent chain
// and executed on the child chain.
func estimateRetryable(
	ctx context.Context,
	parent, child ethclient.Client,
	inbox common.Address,
	dataLength int,
	cfg *config.RetryableConfig,
) (*retryableFees, error) {
	header, err := parent.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, readError("parent chain header", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	submission, err := contract.NewInbox(parent, inbox).CalculateRetryableSubmissionFee(ctx, dataLength, baseFee)
	if err != nil {
		return nil, readError("retryable submission fee", err)
	}
	gasPrice, err := child.SuggestGasPrice(ctx)
	if err != nil {
		return nil, readError("child chain gas price", err)
	}
	return &retryableFees{
		MaxSubmissionCost: withPercentIncrease(submission, cfg.SubmissionFeePercentIncrease),
		GasLimit:          new(big.Int).SetUint64(cfg.GasLimit),
		MaxFeePerGas:      withPercentIncrease(gasPrice, cfg.GasPricePercentIncrease),
	}, nil
}
