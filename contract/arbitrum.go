package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/ethclient"
)

// Precompiles present on every rollup and orbit chain.
var (
	ArbSysAddress         = common.HexToAddress("0x0000000000000000000000000000000000000064")
	ArbRetryableTxAddress = common.HexToAddress("0x000000000000000000000000000000000000006E")
)

type GatewayRouter struct {
	*Contract
}

func NewL1GatewayRouter(client ethclient.Client, addr common.Address) *GatewayRouter {
	return &GatewayRouter{NewContract(client, addr, abi.L1GatewayRouter)}
}

func NewL2GatewayRouter(client ethclient.Client, addr common.Address) *GatewayRouter {
	return &GatewayRouter{NewContract(client, addr, abi.L2GatewayRouter)}
}

// GetGateway resolves the gateway serving the given parent-chain token.
func (r *GatewayRouter) GetGateway(ctx context.Context, token common.Address) (common.Address, error) {
	return callOne[common.Address](ctx, r.Contract, "getGateway", token)
}

func (r *GatewayRouter) CalculateL2TokenAddress(ctx context.Context, token common.Address) (common.Address, error) {
	return callOne[common.Address](ctx, r.Contract, "calculateL2TokenAddress", token)
}

func (r *GatewayRouter) OutboundTransferCustomRefundData(
	token, refundTo, to common.Address,
	amount *big.Int,
	maxGas, gasPriceBid *big.Int,
	data []byte,
) ([]byte, error) {
	return r.Pack("outboundTransferCustomRefund", token, refundTo, to, amount, maxGas, gasPriceBid, data)
}

func (r *GatewayRouter) OutboundTransferData(token, to common.Address, amount *big.Int) ([]byte, error) {
	return r.Pack("outboundTransfer", token, to, amount, []byte{})
}

type Inbox struct {
	*Contract
}

func NewInbox(client ethclient.Client, addr common.Address) *Inbox {
	return &Inbox{NewContract(client, addr, abi.Inbox)}
}

func (i *Inbox) CalculateRetryableSubmissionFee(ctx context.Context, dataLength int, baseFee *big.Int) (*big.Int, error) {
	return callOne[*big.Int](ctx, i.Contract, "calculateRetryableSubmissionFee", big.NewInt(int64(dataLength)), baseFee)
}

func (i *Inbox) DepositEthData() ([]byte, error) {
	return i.Pack("depositEth")
}

func (i *Inbox) DepositERC20Data(amount *big.Int) ([]byte, error) {
	return i.Pack("depositERC20", amount)
}

type RetryableTicket struct {
	To                common.Address
	CallValue         *big.Int
	MaxSubmissionCost *big.Int
	ExcessFeeRefund   common.Address
	CallValueRefund   common.Address
	GasLimit          *big.Int
	MaxFeePerGas      *big.Int
	Data              []byte
}

func (i *Inbox) CreateRetryableTicketData(t *RetryableTicket) ([]byte, error) {
	data := t.Data
	if data == nil {
		data = []byte{}
	}
	return i.Pack("createRetryableTicket",
		t.To, t.CallValue, t.MaxSubmissionCost, t.ExcessFeeRefund, t.CallValueRefund, t.GasLimit, t.MaxFeePerGas, data)
}

type ArbSys struct {
	*Contract
}

func NewArbSys(client ethclient.Client) *ArbSys {
	return &ArbSys{NewContract(client, ArbSysAddress, abi.ArbSys)}
}

func (s *ArbSys) WithdrawEthData(destination common.Address) ([]byte, error) {
	return s.Pack("withdrawEth", destination)
}

type ArbRetryableTx struct {
	*Contract
}

func NewArbRetryableTx(client ethclient.Client) *ArbRetryableTx {
	return &ArbRetryableTx{NewContract(client, ArbRetryableTxAddress, abi.ArbRetryableTx)}
}

// GetTimeout returns the unix timestamp after which the ticket can no longer be redeemed.
func (r *ArbRetryableTx) GetTimeout(ctx context.Context, ticketID common.Hash) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.Contract, "getTimeout", ticketID)
}

type Outbox struct {
	*Contract
}

func NewOutbox(client ethclient.Client, addr common.Address) *Outbox {
	return &Outbox{NewContract(client, addr, abi.Outbox)}
}

func (o *Outbox) IsSpent(ctx context.Context, index *big.Int) (bool, error) {
	return callOne[bool](ctx, o.Contract, "isSpent", index)
}
