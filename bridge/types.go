package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/wallet"
)

type TransferType = entity.TransferType

const StatusPending = "pending"

type AssetKind string

const (
	AssetNative AssetKind = "native"
	AssetToken  AssetKind = "token"
)

type Asset struct {
	Kind AssetKind
	// Address is the token address on the parent chain of the transfer pair.
	Address common.Address
	// ChildAddress is the token address on the child chain, when known.
	ChildAddress *common.Address
	Symbol       string
	Decimals     uint8
}

func NativeAsset(symbol string, decimals uint8) *Asset {
	return &Asset{Kind: AssetNative, Symbol: symbol, Decimals: decimals}
}

func (a *Asset) IsNative() bool {
	return a == nil || a.Kind == AssetNative
}

// Intent is a single user request to move an amount of an asset between two chains.
type Intent struct {
	SourceChainID      uint64
	DestinationChainID uint64
	Asset              *Asset
	Amount             *big.Int
	Sender             common.Address
	Destination        *common.Address
}

func (i *Intent) Recipient() common.Address {
	if i.Destination != nil {
		return *i.Destination
	}
	return i.Sender
}

func (i *Intent) Validate() error {
	if i.Amount == nil || i.Amount.Sign() <= 0 {
		return preconditionError("amount must be positive")
	}
	if i.Asset == nil {
		return preconditionError("asset is not set")
	}
	if !i.Asset.IsNative() && i.Asset.Address == (common.Address{}) {
		return preconditionError("token address is not set")
	}
	if i.Destination != nil && *i.Destination == (common.Address{}) {
		return preconditionError("destination address is empty")
	}
	if i.SourceChainID == i.DestinationChainID {
		return preconditionError("source and destination chain are the same")
	}
	return nil
}

// TransferResult is returned by a successful submission and never modified afterwards.
type TransferResult struct {
	Type              TransferType
	Status            string
	SourceTx          *types.Transaction
	SourceClient      ethclient.Client
	DestinationClient ethclient.Client
}

// AllowanceFunc reads how much spender may move of owner's token.
type AllowanceFunc func(ctx context.Context, token, owner, spender common.Address, client ethclient.Client) (*big.Int, error)

// BurnLimitFunc reads the current per-message CCTP burn limit of the source chain deployment.
type BurnLimitFunc func(ctx context.Context, sourceChainID uint64) (*big.Int, error)

type RequiresNativeCurrencyApprovalProps struct {
	Amount       *big.Int
	OwnerAddress common.Address
}

type ApproveNativeCurrencyProps struct {
	Signer wallet.Signer
	Amount *big.Int
}

type RequiresTokenApprovalProps struct {
	Amount             *big.Int
	OwnerAddress       common.Address
	DestinationAddress *common.Address
}

type ApproveTokenProps struct {
	Signer wallet.Signer
	Amount *big.Int
}

type TransferProps struct {
	Amount             *big.Int
	DestinationAddress *common.Address
	Signer             wallet.Signer
}

// TransferStarter is implemented once per bridging protocol.
type TransferStarter interface {
	Type() TransferType
	RequiresNativeCurrencyApproval(ctx context.Context, props RequiresNativeCurrencyApprovalProps) (bool, error)
	// ApproveNativeCurrency returns a nil transaction when no approval is needed.
	ApproveNativeCurrency(ctx context.Context, props ApproveNativeCurrencyProps) (*types.Transaction, error)
	RequiresTokenApproval(ctx context.Context, props RequiresTokenApprovalProps) (bool, error)
	ApproveToken(ctx context.Context, props ApproveTokenProps) (*types.Transaction, error)
	Transfer(ctx context.Context, props TransferProps) (*TransferResult, error)
}

// RegistrationChecker is implemented by strategies that must refuse tokens whose
// gateway is being re-registered.
type RegistrationChecker interface {
	CheckTokenRegistration(ctx context.Context) error
}

// Props binds a strategy to a chain pair and the asset being moved.
type Props struct {
	Source            *config.ChainConfig
	Destination       *config.ChainConfig
	SourceClient      ethclient.Client
	DestinationClient ethclient.Client
	// IntermediateClient serves the rollup between the base chain and the orbit chain of a teleport.
	IntermediateClient ethclient.Client
	Asset              *Asset
	Retryable          *config.RetryableConfig
	Allowance          AllowanceFunc
	BurnLimit          BurnLimitFunc
}
