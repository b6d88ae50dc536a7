// Package ethclienttest provides an in-memory ethclient.Client whose contract calls are
// answered by per-method handlers, for tests of code that talks to chains.
package ethclienttest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrNoHandler = errors.New("no handler for contract call")

// Handler answers a decoded contract call with the method outputs.
type Handler func(args []interface{}) ([]interface{}, error)

// ReceiptFunc builds the receipt for a freshly sent transaction. A nil receipt
// leaves the transaction pending.
type ReceiptFunc func(tx *types.Transaction) *types.Receipt

type method struct {
	abi     abi.Method
	handler Handler
}

type Client struct {
	mu       sync.Mutex
	chainID  uint64
	head     uint64
	baseFee  *big.Int
	methods  map[common.Address]map[[4]byte]*method
	receipts map[common.Hash]*types.Receipt
	headers  map[uint64]*types.Header
	logs     []types.Log
	sent     []*types.Transaction
	calls    int
	onSend   ReceiptFunc
	sendErr  error
}

func NewClient(chainID uint64) *Client {
	return &Client{
		chainID:  chainID,
		head:     100,
		baseFee:  big.NewInt(1_000_000_000),
		methods:  make(map[common.Address]map[[4]byte]*method),
		receipts: make(map[common.Hash]*types.Receipt),
		headers:  make(map[uint64]*types.Header),
		onSend:   SuccessfulReceipt,
	}
}

// SuccessfulReceipt mines every sent transaction with status 1 and no logs.
func SuccessfulReceipt(tx *types.Transaction) *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(100),
	}
}

// Handle registers the handler for calls of the given method on the contract at addr.
func (c *Client) Handle(addr common.Address, contractABI abi.ABI, name string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := contractABI.Methods[name]
	if !ok {
		panic(fmt.Sprintf("unknown method %s", name))
	}
	if c.methods[addr] == nil {
		c.methods[addr] = make(map[[4]byte]*method)
	}
	var id [4]byte
	copy(id[:], m.ID)
	c.methods[addr][id] = &method{abi: m, handler: handler}
}

// Returns registers a handler that always answers with the given outputs.
func (c *Client) Returns(addr common.Address, contractABI abi.ABI, name string, outputs ...interface{}) {
	c.Handle(addr, contractABI, name, func([]interface{}) ([]interface{}, error) {
		return outputs, nil
	})
}

func (c *Client) OnSend(fn ReceiptFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSend = fn
}

func (c *Client) FailSend(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *Client) SetHead(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = n
}

func (c *Client) SetHeader(header *types.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[header.Number.Uint64()] = header
}

func (c *Client) SetReceipt(receipt *types.Receipt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receipts[receipt.TxHash] = receipt
}

func (c *Client) AddLogs(logs ...types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, logs...)
}

// Sent returns every transaction passed to SendTransaction, in order.
func (c *Client) Sent() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.sent...)
}

// Calls returns the number of eth_call requests served.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *Client) ChainID() uint64 {
	return c.chainID
}

func (c *Client) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *Client) HeaderByNumber(_ context.Context, n *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	num := c.head
	if n != nil {
		num = n.Uint64()
	}
	if header, ok := c.headers[num]; ok {
		return header, nil
	}
	return &types.Header{Number: new(big.Int).SetUint64(num), BaseFee: c.baseFee, Time: 1700000000 + num}, nil
}

func (c *Client) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res []types.Log
	for _, log := range c.logs {
		if matches(log, q) {
			res = append(res, log)
		}
	}
	return res, nil
}

func matches(log types.Log, q ethereum.FilterQuery) bool {
	if q.FromBlock != nil && log.BlockNumber < q.FromBlock.Uint64() {
		return false
	}
	if q.ToBlock != nil && log.BlockNumber > q.ToBlock.Uint64() {
		return false
	}
	if len(q.Addresses) > 0 {
		found := false
		for _, addr := range q.Addresses {
			if addr == log.Address {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	for i, options := range q.Topics {
		if len(options) == 0 {
			continue
		}
		if i >= len(log.Topics) {
			return false
		}
		found := false
		for _, topic := range options {
			if topic == log.Topics[i] {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c *Client) TransactionReceiptByHash(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if receipt, ok := c.receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

func (c *Client) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.mu.Lock()
	c.calls++
	var m *method
	if msg.To != nil && len(msg.Data) >= 4 {
		var id [4]byte
		copy(id[:], msg.Data[:4])
		m = c.methods[*msg.To][id]
	}
	c.mu.Unlock()

	if m == nil {
		return nil, fmt.Errorf("call to %v: %w", msg.To, ErrNoHandler)
	}
	args, err := m.abi.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("can't unpack %s inputs: %w", m.abi.Name, err)
	}
	outputs, err := m.handler(args)
	if err != nil {
		return nil, err
	}
	return m.abi.Outputs.Pack(outputs...)
}

func (c *Client) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil), nil
}

func (c *Client) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(len(c.sent)), nil
}

func (c *Client) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (c *Client) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (c *Client) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (c *Client) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, tx)
	if c.onSend != nil {
		if receipt := c.onSend(tx); receipt != nil {
			c.receipts[tx.Hash()] = receipt
		}
	}
	return nil
}
