package wallet

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// userRejectedCode is the EIP-1193 provider error code for a request declined by the user.
const userRejectedCode = 4001

var (
	ErrUserRejected   = errors.New("user rejected the request")
	ErrUnknownChain   = errors.New("wallet can't switch to unknown chain")
	ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")
)

type TxRequest struct {
	To    *common.Address
	Value *big.Int
	Data  []byte
	// Gas is estimated by the signer when left zero.
	Gas uint64
}

type Signer interface {
	Address() common.Address
	ChainID() uint64
	SendTransaction(ctx context.Context, req *TxRequest) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

type Wallet interface {
	Address() common.Address
	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	Signer(ctx context.Context) (Signer, error)
}

// ChainNotifier is implemented by wallets that can push active chain changes.
// The returned func ends the subscription.
type ChainNotifier interface {
	ChainChanged() (<-chan uint64, func())
}

func IsUserRejectedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}
