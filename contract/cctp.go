package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/ethclient"
)

type TokenMessenger struct {
	*Contract
}

func NewTokenMessenger(client ethclient.Client, addr common.Address) *TokenMessenger {
	return &TokenMessenger{NewContract(client, addr, abi.TokenMessenger)}
}

func (m *TokenMessenger) LocalMinter(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, m.Contract, "localMinter")
}

// DepositForBurnData encodes a burn of amount USDC minted to recipient on the destination domain.
func (m *TokenMessenger) DepositForBurnData(
	amount *big.Int,
	destinationDomain uint32,
	recipient common.Address,
	burnToken common.Address,
) ([]byte, error) {
	return m.Pack("depositForBurn", amount, destinationDomain, common.BytesToHash(recipient.Bytes()), burnToken)
}

type TokenMinter struct {
	*Contract
}

func NewTokenMinter(client ethclient.Client, addr common.Address) *TokenMinter {
	return &TokenMinter{NewContract(client, addr, abi.TokenMinter)}
}

func (m *TokenMinter) BurnLimitsPerMessage(ctx context.Context, token common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, m.Contract, "burnLimitsPerMessage", token)
}

type MessageTransmitter struct {
	*Contract
}

func NewMessageTransmitter(client ethclient.Client, addr common.Address) *MessageTransmitter {
	return &MessageTransmitter{NewContract(client, addr, abi.MessageTransmitter)}
}

// UsedNonces is non-zero once the message identified by the source domain and nonce was received.
func (t *MessageTransmitter) UsedNonces(ctx context.Context, sourceAndNonce common.Hash) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Contract, "usedNonces", sourceAndNonce)
}

func (t *MessageTransmitter) ReceiveMessageData(message, attestation []byte) ([]byte, error) {
	return t.Pack("receiveMessage", message, attestation)
}
