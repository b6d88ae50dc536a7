package bridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/config"
)

type Kind string

const (
	KindStandardDeposit    Kind = "standard_deposit"
	KindStandardWithdrawal Kind = "standard_withdrawal"
	KindCctp               Kind = "cctp"
	KindTeleport           Kind = "teleport"
)

// Classifier answers chain hierarchy questions, network.Registry implements it.
type Classifier interface {
	Chain(id uint64) (*config.ChainConfig, error)
	IsBaseChain(id uint64) bool
	IsRollup(id uint64) bool
	IsNova(id uint64) bool
	IsDirectChild(parent, child uint64) bool
	IsGrandchild(ancestor, descendant uint64) bool
}

// Select picks the bridging protocol for the intent. It has no side effects.
func Select(chains Classifier, intent *Intent) (Kind, error) {
	src, dst := intent.SourceChainID, intent.DestinationChainID
	if _, err := chains.Chain(src); err != nil {
		return "", fmt.Errorf("source chain: %w: %w", ErrUnsupportedChainPair, err)
	}
	if _, err := chains.Chain(dst); err != nil {
		return "", fmt.Errorf("destination chain: %w: %w", ErrUnsupportedChainPair, err)
	}
	switch {
	case isCctpTransfer(chains, intent):
		return KindCctp, nil
	case chains.IsDirectChild(src, dst):
		return KindStandardDeposit, nil
	case chains.IsDirectChild(dst, src):
		return KindStandardWithdrawal, nil
	case chains.IsGrandchild(src, dst):
		return KindTeleport, nil
	default:
		return "", fmt.Errorf("%d -> %d: %w", src, dst, ErrUnsupportedChainPair)
	}
}

func isCctpTransfer(chains Classifier, intent *Intent) bool {
	if intent.Asset.IsNative() {
		return false
	}
	src, dst := intent.SourceChainID, intent.DestinationChainID
	if chains.IsNova(src) || chains.IsNova(dst) {
		return false
	}
	directPair := (chains.IsBaseChain(src) && chains.IsRollup(dst) && chains.IsDirectChild(src, dst)) ||
		(chains.IsRollup(src) && chains.IsBaseChain(dst) && chains.IsDirectChild(dst, src))
	if !directPair {
		return false
	}
	source, _ := chains.Chain(src)
	destination, _ := chains.Chain(dst)
	if source.CCTP == nil || destination.CCTP == nil {
		return false
	}
	return isToken(intent.Asset, source.CCTP.USDC)
}

func isToken(asset *Asset, addr common.Address) bool {
	return asset.Address == addr || (asset.ChildAddress != nil && *asset.ChildAddress == addr)
}

// New builds the strategy for the selected protocol.
func New(kind Kind, props *Props) (TransferStarter, error) {
	if props.Allowance == nil {
		props.Allowance = ReadAllowance
	}
	if props.Retryable == nil {
		props.Retryable = &config.RetryableConfig{
			GasLimit:                     300_000,
			GasPricePercentIncrease:      200,
			SubmissionFeePercentIncrease: 300,
		}
	}
	if props.Asset == nil {
		return nil, preconditionError("asset is not set")
	}
	switch kind {
	case KindStandardDeposit:
		return newStandardDeposit(props)
	case KindStandardWithdrawal:
		return newStandardWithdrawal(props)
	case KindCctp:
		return newCctpTransfer(props)
	case KindTeleport:
		return newTeleportDeposit(props)
	default:
		return nil, fmt.Errorf("unknown strategy %q: %w", kind, ErrUnsupportedChainPair)
	}
}
