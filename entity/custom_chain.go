package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CustomChain is a user-registered orbit chain that is not part of the static configuration.
type CustomChain struct {
	ChainID             uint64          `db:"chain_id" json:"chainId"`
	ParentChainID       uint64          `db:"parent_chain_id" json:"parentChainId"`
	Name                string          `db:"name" json:"name"`
	RPCURL              string          `db:"rpc_url" json:"rpcUrl"`
	ExplorerURL         string          `db:"explorer_url" json:"explorerUrl"`
	NativeToken         *common.Address `db:"native_token" json:"nativeToken"`
	Bridge              common.Address  `db:"bridge" json:"bridge"`
	Inbox               common.Address  `db:"inbox" json:"inbox"`
	Outbox              common.Address  `db:"outbox" json:"outbox"`
	ParentGatewayRouter *common.Address `db:"parent_gateway_router" json:"parentGatewayRouter"`
	ChildGatewayRouter  *common.Address `db:"child_gateway_router" json:"childGatewayRouter"`
	ConfirmPeriodBlocks uint64          `db:"confirm_period_blocks" json:"confirmPeriodBlocks"`
	CreatedAt           *time.Time      `db:"created_at" json:"createdAt"`
}

type CustomChainsRepo interface {
	FindAll(ctx context.Context) ([]*CustomChain, error)
	// Ensure inserts the chain, leaving an already stored chain with the same id untouched.
	Ensure(ctx context.Context, chain *CustomChain) error
	Delete(ctx context.Context, chainID uint64) error
}
