package network

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
)

const defaultCustomChainRPCTimeout = 30 * time.Second

var (
	ErrUnknownChain       = errors.New("unknown chain")
	ErrInvalidCustomChain = errors.New("invalid custom chain")
)

// Registry classifies chains by their position in the base chain / rollup / orbit hierarchy.
// It serves both statically configured chains and user-added orbit chains.
type Registry struct {
	logger logging.Logger
	store  entity.CustomChainsRepo

	mu     sync.RWMutex
	chains map[uint64]*config.ChainConfig
	custom map[uint64]bool
}

func NewRegistry(logger logging.Logger, chains map[string]*config.ChainConfig, store entity.CustomChainsRepo) *Registry {
	r := &Registry{
		logger: logger,
		store:  store,
		chains: make(map[uint64]*config.ChainConfig, len(chains)),
		custom: make(map[uint64]bool),
	}
	for _, chain := range chains {
		r.chains[chain.ChainID] = chain
	}
	return r
}

// LoadCustomChains registers every chain persisted in the store. Chains whose parent
// is unknown or not a rollup are skipped with a warning.
func (r *Registry) LoadCustomChains(ctx context.Context) error {
	chains, err := r.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("can't load custom chains: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cc := range chains {
		if err = r.register(cc); err != nil {
			r.logger.WithError(err).WithField("chain_id", cc.ChainID).Warn("skipping stored custom chain")
		}
	}
	return nil
}

// AddCustomChain persists and registers an orbit chain. Adding an already known
// chain id is a no-op.
func (r *Registry) AddCustomChain(ctx context.Context, cc *entity.CustomChain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chains[cc.ChainID]; ok {
		r.logger.WithField("chain_id", cc.ChainID).Debug("custom chain already registered")
		return nil
	}
	if cc.RPCURL == "" {
		return fmt.Errorf("chain %d has no rpc url: %w", cc.ChainID, ErrInvalidCustomChain)
	}
	if !r.isRollup(cc.ParentChainID) {
		return fmt.Errorf("parent %d of chain %d is not a rollup: %w", cc.ParentChainID, cc.ChainID, ErrInvalidCustomChain)
	}
	if err := r.store.Ensure(ctx, cc); err != nil {
		return fmt.Errorf("can't save custom chain: %w", err)
	}
	if err := r.register(cc); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"chain_id":        cc.ChainID,
		"parent_chain_id": cc.ParentChainID,
		"name":            cc.Name,
	}).Info("registered custom chain")
	return nil
}

func (r *Registry) RemoveCustomChain(ctx context.Context, chainID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.custom[chainID] {
		return fmt.Errorf("chain %d is not a custom chain: %w", chainID, ErrUnknownChain)
	}
	if err := r.store.Delete(ctx, chainID); err != nil {
		return fmt.Errorf("can't remove custom chain: %w", err)
	}
	delete(r.chains, chainID)
	delete(r.custom, chainID)
	return nil
}

func (r *Registry) register(cc *entity.CustomChain) error {
	parent, ok := r.chains[cc.ParentChainID]
	if !ok || !r.isRollup(cc.ParentChainID) {
		return fmt.Errorf("parent %d of chain %d is not a rollup: %w", cc.ParentChainID, cc.ChainID, ErrInvalidCustomChain)
	}
	timeout := defaultCustomChainRPCTimeout
	if parent.RPC != nil && parent.RPC.Timeout > 0 {
		timeout = parent.RPC.Timeout
	}
	chain := &config.ChainConfig{
		Name:                cc.Name,
		ChainID:             cc.ChainID,
		ParentName:          parent.Name,
		Parent:              parent,
		Testnet:             parent.Testnet,
		RPC:                 &config.RPCConfig{Host: cc.RPCURL, Timeout: timeout},
		ConfirmPeriodBlocks: cc.ConfirmPeriodBlocks,
		EthBridge: &config.EthBridgeConfig{
			Bridge: cc.Bridge,
			Inbox:  cc.Inbox,
			Outbox: cc.Outbox,
		},
	}
	if cc.ParentGatewayRouter != nil && cc.ChildGatewayRouter != nil {
		chain.TokenBridge = &config.TokenBridgeConfig{
			ParentGatewayRouter: *cc.ParentGatewayRouter,
			ChildGatewayRouter:  *cc.ChildGatewayRouter,
		}
	}
	if cc.NativeToken != nil {
		chain.NativeToken = &config.NativeTokenConfig{Address: *cc.NativeToken, Decimals: 18}
	}
	r.chains[cc.ChainID] = chain
	r.custom[cc.ChainID] = true
	return nil
}

func (r *Registry) Chain(id uint64) (*config.ChainConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain, ok := r.chains[id]
	if !ok {
		return nil, fmt.Errorf("chain %d: %w", id, ErrUnknownChain)
	}
	return chain, nil
}

// Chains returns every known chain ordered by id.
func (r *Registry) Chains() []*config.ChainConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*config.ChainConfig, 0, len(r.chains))
	for _, chain := range r.chains {
		res = append(res, chain)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ChainID < res[j].ChainID
	})
	return res
}

func (r *Registry) IsCustomChain(id uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.custom[id]
}

func (r *Registry) ParentChain(id uint64) (*config.ChainConfig, error) {
	chain, err := r.Chain(id)
	if err != nil {
		return nil, err
	}
	if chain.Parent == nil {
		return nil, fmt.Errorf("chain %d has no parent: %w", id, ErrUnknownChain)
	}
	return chain.Parent, nil
}

func (r *Registry) IsBaseChain(id uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain, ok := r.chains[id]
	return ok && chain.Parent == nil
}

func (r *Registry) IsRollup(id uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRollup(id)
}

func (r *Registry) isRollup(id uint64) bool {
	chain, ok := r.chains[id]
	return ok && chain.Parent != nil && chain.Parent.Parent == nil
}

func (r *Registry) IsOrbitChain(id uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain, ok := r.chains[id]
	return ok && chain.Parent != nil && r.isRollup(chain.Parent.ChainID)
}

func (r *Registry) IsTestnet(id uint64) bool {
	chain, err := r.Chain(id)
	return err == nil && chain.Testnet
}

func (r *Registry) IsNova(id uint64) bool {
	chain, err := r.Chain(id)
	return err == nil && chain.Nova
}

// IsDirectChild reports whether child settles directly to parent.
func (r *Registry) IsDirectChild(parent, child uint64) bool {
	chain, err := r.Chain(child)
	return err == nil && chain.Parent != nil && chain.Parent.ChainID == parent
}

// IsGrandchild reports whether descendant is exactly two bridging hops below ancestor.
func (r *Registry) IsGrandchild(ancestor, descendant uint64) bool {
	chain, err := r.Chain(descendant)
	if err != nil || chain.Parent == nil || chain.Parent.Parent == nil {
		return false
	}
	return chain.Parent.Parent.ChainID == ancestor
}

// IsTeleport reports whether a transfer from source to destination is a two-hop
// deposit from a base chain to an orbit chain.
func (r *Registry) IsTeleport(source, destination uint64) bool {
	return r.IsBaseChain(source) && r.IsOrbitChain(destination) && r.IsGrandchild(source, destination)
}

// BaseChainID walks up the hierarchy to the chain the given one ultimately settles to.
func (r *Registry) BaseChainID(id uint64) (uint64, error) {
	chain, err := r.Chain(id)
	if err != nil {
		return 0, err
	}
	for chain.Parent != nil {
		chain = chain.Parent
	}
	return chain.ChainID, nil
}

func (r *Registry) ChildChainIDs(id uint64) []uint64 {
	var res []uint64
	for _, chain := range r.Chains() {
		if chain.Parent != nil && chain.Parent.ChainID == id {
			res = append(res, chain.ChainID)
		}
	}
	return res
}

// DestinationChainIDs lists chains reachable from id in one transfer: the parent first,
// then direct children, then teleport targets when the chain has a teleporter deployed.
func (r *Registry) DestinationChainIDs(id uint64) ([]uint64, error) {
	chain, err := r.Chain(id)
	if err != nil {
		return nil, err
	}
	var res []uint64
	if chain.Parent != nil {
		res = append(res, chain.Parent.ChainID)
	}
	children := r.ChildChainIDs(id)
	res = append(res, children...)
	if chain.Parent == nil && chain.Teleporter != nil {
		for _, child := range children {
			res = append(res, r.ChildChainIDs(child)...)
		}
	}
	return res, nil
}
