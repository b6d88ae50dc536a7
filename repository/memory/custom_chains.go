package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/omni/tokenbridge-transfers/entity"
)

type customChainsRepo struct {
	mu     sync.RWMutex
	chains map[uint64]entity.CustomChain
}

func NewCustomChainsRepo() entity.CustomChainsRepo {
	return &customChainsRepo{
		chains: make(map[uint64]entity.CustomChain),
	}
}

func (r *customChainsRepo) FindAll(_ context.Context) ([]*entity.CustomChain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*entity.CustomChain, 0, len(r.chains))
	for _, chain := range r.chains {
		chain := chain
		res = append(res, &chain)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ChainID < res[j].ChainID
	})
	return res, nil
}

func (r *customChainsRepo) Ensure(_ context.Context, chain *entity.CustomChain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chains[chain.ChainID]; !ok {
		r.chains[chain.ChainID] = *chain
	}
	return nil
}

func (r *customChainsRepo) Delete(_ context.Context, chainID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.chains, chainID)
	return nil
}
