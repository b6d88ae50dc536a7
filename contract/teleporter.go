package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/ethclient"
)

// TeleportGasParams field names follow the tuple components of the teleporter ABI.
type TeleportGasParams struct {
	L2GasPriceBid                    *big.Int
	L3GasPriceBid                    *big.Int
	L2ForwarderFactoryGasLimit       uint64
	L1l2FeeTokenBridgeGasLimit       uint64
	L2l3TokenBridgeGasLimit          uint64
	L1l2FeeTokenBridgeSubmissionCost *big.Int
	L1l2TokenBridgeSubmissionCost    *big.Int
	L2l3TokenBridgeSubmissionCost    *big.Int
}

type TeleportParams struct {
	L1Token           common.Address
	L3FeeTokenL1Addr  common.Address
	L1l2Router        common.Address
	L2l3RouterOrInbox common.Address
	To                common.Address
	Amount            *big.Int
	GasParams         TeleportGasParams
}

type TeleportFees struct {
	EthAmount         *big.Int
	FeeTokenAmount    *big.Int
	TeleportationType uint8
}

type L1Teleporter struct {
	*Contract
}

func NewL1Teleporter(client ethclient.Client, addr common.Address) *L1Teleporter {
	return &L1Teleporter{NewContract(client, addr, abi.L1Teleporter)}
}

func (t *L1Teleporter) DetermineTypeAndFees(ctx context.Context, params *TeleportParams) (*TeleportFees, error) {
	values, err := t.Call(ctx, "determineTypeAndFees", params)
	if err != nil {
		return nil, err
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("determineTypeAndFees returned %d values: %w", len(values), ErrUnexpectedOutput)
	}
	eth, ok1 := values[0].(*big.Int)
	feeToken, ok2 := values[1].(*big.Int)
	kind, ok3 := values[2].(uint8)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("determineTypeAndFees returned %T: %w", values, ErrUnexpectedOutput)
	}
	return &TeleportFees{EthAmount: eth, FeeTokenAmount: feeToken, TeleportationType: kind}, nil
}

func (t *L1Teleporter) TeleportData(params *TeleportParams) ([]byte, error) {
	return t.Pack("teleport", params)
}
