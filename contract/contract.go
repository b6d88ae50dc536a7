package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/ethclient"
)

var ErrUnexpectedOutput = errors.New("unexpected contract output")

type Contract struct {
	address common.Address
	client  ethclient.Client
	abi     abi.ABI
}

func NewContract(client ethclient.Client, addr common.Address, abi abi.ABI) *Contract {
	return &Contract{addr, client, abi}
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) AllEvents() map[string]bool {
	return c.abi.AllEvents()
}

// Pack encodes calldata for a state-changing call. The result is meant to be
// handed to a signer as is.
func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("can't encode %s calldata: %w", method, err)
	}
	return data, nil
}

func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	res, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("can't call %s(...): %w", method, err)
	}
	values, err := c.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("can't decode %s output: %w", method, err)
	}
	return values, nil
}

func callOne[T any](ctx context.Context, c *Contract, method string, args ...interface{}) (T, error) {
	var zero T
	values, err := c.Call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(values) == 0 {
		return zero, fmt.Errorf("%s returned nothing: %w", method, ErrUnexpectedOutput)
	}
	res, ok := values[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s returned %T: %w", method, values[0], ErrUnexpectedOutput)
	}
	return res, nil
}
