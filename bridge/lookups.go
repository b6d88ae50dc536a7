package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/ethclient"
)

// ReadAllowance is the default AllowanceFunc backed by ERC20.allowance.
func ReadAllowance(ctx context.Context, token, owner, spender common.Address, client ethclient.Client) (*big.Int, error) {
	return contract.NewERC20(client, token).Allowance(ctx, owner, spender)
}

type chainResolver interface {
	Chain(id uint64) (*config.ChainConfig, error)
}

// NewBurnLimitLookup returns a BurnLimitFunc that reads TokenMinter.burnLimitsPerMessage
// through the TokenMessenger's local minter on every call.
func NewBurnLimitLookup(chains chainResolver, clients *ethclient.Pool) BurnLimitFunc {
	return func(ctx context.Context, sourceChainID uint64) (*big.Int, error) {
		chain, err := chains.Chain(sourceChainID)
		if err != nil {
			return nil, err
		}
		if chain.CCTP == nil {
			return nil, fmt.Errorf("chain %d has no cctp deployment: %w", sourceChainID, ErrUnsupportedChainPair)
		}
		client, err := clients.Get(sourceChainID)
		if err != nil {
			return nil, err
		}
		minter, err := contract.NewTokenMessenger(client, chain.CCTP.TokenMessenger).LocalMinter(ctx)
		if err != nil {
			return nil, err
		}
		return contract.NewTokenMinter(client, minter).BurnLimitsPerMessage(ctx, chain.CCTP.USDC)
	}
}
