package ethclient

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownChain = errors.New("no rpc client for chain")

// Pool holds one client per chain id. Clients are dialed lazily through the dial func
// and cached for the lifetime of the pool.
type Pool struct {
	mu      sync.Mutex
	clients map[uint64]Client
	dial    func(chainID uint64) (Client, error)
}

func NewPool(dial func(chainID uint64) (Client, error)) *Pool {
	return &Pool{
		clients: make(map[uint64]Client),
		dial:    dial,
	}
}

// NewStaticPool returns a pool that only serves the given clients.
func NewStaticPool(clients ...Client) *Pool {
	p := NewPool(nil)
	for _, c := range clients {
		p.clients[c.ChainID()] = c
	}
	return p
}

func (p *Pool) Get(chainID uint64) (Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}
	if p.dial == nil {
		return nil, fmt.Errorf("chain %d: %w", chainID, ErrUnknownChain)
	}
	c, err := p.dial(chainID)
	if err != nil {
		return nil, fmt.Errorf("can't dial chain %d: %w", chainID, err)
	}
	p.clients[chainID] = c
	return c, nil
}
