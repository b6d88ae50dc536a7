package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/ethclient"
)

type ERC20 struct {
	*Contract
}

func NewERC20(client ethclient.Client, addr common.Address) *ERC20 {
	return &ERC20{NewContract(client, addr, abi.ERC20)}
}

func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Contract, "allowance", owner, spender)
}

func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Contract, "balanceOf", account)
}

func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	return callOne[uint8](ctx, t.Contract, "decimals")
}

func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	return callOne[string](ctx, t.Contract, "symbol")
}

func (t *ERC20) ApproveData(spender common.Address, amount *big.Int) ([]byte, error) {
	return t.Pack("approve", spender, amount)
}
