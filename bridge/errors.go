package bridge

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/omni/tokenbridge-transfers/units"
	"github.com/omni/tokenbridge-transfers/wallet"
)

var (
	// ErrUserRejected means the wallet declined a signature request. Flows treat it as a silent abort.
	ErrUserRejected = wallet.ErrUserRejected
	// ErrPrecondition is returned before anything is submitted when an intent can't be served.
	ErrPrecondition = errors.New("transfer precondition violated")
	// ErrNetworkMismatch means the wallet is connected to a chain other than the transfer source.
	ErrNetworkMismatch = errors.New("connected chain does not match the source chain")
	// ErrTransactionFailed means a submitted transaction was mined but reverted.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrTransientRPC wraps failed chain reads. It is never retried here.
	ErrTransientRPC = errors.New("chain read failed")

	ErrUnsupportedChainPair = fmt.Errorf("unsupported chain pair: %w", ErrPrecondition)
	ErrBurnLimitExceeded    = fmt.Errorf("cctp burn limit exceeded: %w", ErrPrecondition)
	ErrGatewayRegistration  = fmt.Errorf("token gateway registration in progress: %w", ErrPrecondition)
)

// BurnLimitError carries the message shown to users when an amount is not below
// the per-message CCTP burn limit.
type BurnLimitError struct {
	Limit    *big.Int
	Decimals uint8
}

func (e *BurnLimitError) Error() string {
	return fmt.Sprintf("The limit for transfers using CCTP is %s. Please lower your amount and try again.",
		units.FormatAmount(e.Limit, e.Decimals, "USDC"))
}

func (e *BurnLimitError) Unwrap() error {
	return ErrBurnLimitExceeded
}

// IsUserRejected reports whether err originates from the wallet declining a request.
func IsUserRejected(err error) bool {
	return wallet.IsUserRejectedError(err)
}

func sendError(what string, err error) error {
	if wallet.IsUserRejectedError(err) && !errors.Is(err, ErrUserRejected) {
		return fmt.Errorf("can't send %s: %w: %w", what, ErrUserRejected, err)
	}
	return fmt.Errorf("can't send %s: %w", what, err)
}

func readError(what string, err error) error {
	return fmt.Errorf("can't read %s: %w: %w", what, ErrTransientRPC, err)
}

func preconditionError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPrecondition)
}
