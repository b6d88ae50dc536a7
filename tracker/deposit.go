package tracker

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/reconcile"
)

// Inbox message kinds, as emitted in Bridge.MessageDelivered.
const (
	KindSubmitRetryable uint8 = 9
	KindEthDeposit      uint8 = 12

	submitRetryableTxType = 0x69
	ethDepositTxType      = 0x64
)

// InboxMessage is a parent-to-child message read from a deposit receipt.
type InboxMessage struct {
	Number  *big.Int
	Kind    uint8
	Sender  common.Address
	BaseFee *big.Int
	Data    []byte
}

// RetryableData is the decoded payload of a submit-retryable inbox message.
type RetryableData struct {
	Destination            common.Address
	L2CallValue            *big.Int
	L1Value                *big.Int
	MaxSubmissionFee       *big.Int
	ExcessFeeRefundAddress common.Address
	CallValueRefundAddress common.Address
	GasLimit               *big.Int
	MaxFeePerGas           *big.Int
	Data                   []byte
}

// ParseRetryableData decodes the packed words of a submit-retryable message.
func ParseRetryableData(data []byte) (*RetryableData, error) {
	const words = 9
	if len(data) < words*32 {
		return nil, fmt.Errorf("retryable data of %d bytes: %w", len(data), ErrMissingEvent)
	}
	word := func(i int) []byte {
		return data[i*32 : (i+1)*32]
	}
	length := new(big.Int).SetBytes(word(8))
	if !length.IsUint64() || uint64(len(data)-words*32) < length.Uint64() {
		return nil, fmt.Errorf("retryable calldata length %s exceeds message: %w", length, ErrMissingEvent)
	}
	return &RetryableData{
		Destination:            common.BytesToAddress(word(0)),
		L2CallValue:            new(big.Int).SetBytes(word(1)),
		L1Value:                new(big.Int).SetBytes(word(2)),
		MaxSubmissionFee:       new(big.Int).SetBytes(word(3)),
		ExcessFeeRefundAddress: common.BytesToAddress(word(4)),
		CallValueRefundAddress: common.BytesToAddress(word(5)),
		GasLimit:               new(big.Int).SetBytes(word(6)),
		MaxFeePerGas:           new(big.Int).SetBytes(word(7)),
		Data:                   data[words*32 : words*32+int(length.Uint64())],
	}, nil
}

// SubmitRetryableID is the hash of the child chain transaction that creates the retryable ticket,
// which is also the ticket id.
func SubmitRetryableID(childChainID uint64, msg *InboxMessage, data *RetryableData) (common.Hash, error) {
	var dest []byte
	if data.Destination != (common.Address{}) {
		dest = data.Destination.Bytes()
	}
	fields := []interface{}{
		new(big.Int).SetUint64(childChainID),
		common.BigToHash(msg.Number).Bytes(),
		msg.Sender,
		msg.BaseFee,
		data.L1Value,
		data.MaxFeePerGas,
		data.GasLimit,
		dest,
		data.L2CallValue,
		data.CallValueRefundAddress,
		data.MaxSubmissionFee,
		data.ExcessFeeRefundAddress,
		data.Data,
	}
	return typedHash(submitRetryableTxType, fields)
}

// EthDepositID is the hash of the child chain transaction that credits an eth deposit.
func EthDepositID(childChainID uint64, msg *InboxMessage) (common.Hash, error) {
	if len(msg.Data) < 52 {
		return common.Hash{}, fmt.Errorf("eth deposit data of %d bytes: %w", len(msg.Data), ErrMissingEvent)
	}
	to := common.BytesToAddress(msg.Data[:20])
	value := new(big.Int).SetBytes(msg.Data[20:52])
	fields := []interface{}{
		new(big.Int).SetUint64(childChainID),
		common.BigToHash(msg.Number).Bytes(),
		msg.Sender,
		to,
		value,
	}
	return typedHash(ethDepositTxType, fields)
}

func typedHash(txType byte, fields []interface{}) (common.Hash, error) {
	enc, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't rlp encode tx fields: %w", err)
	}
	return crypto.Keccak256Hash([]byte{txType}, enc), nil
}

// FindInboxMessage pairs the first Bridge.MessageDelivered event of the receipt with its
// Inbox.InboxMessageDelivered payload.
func FindInboxMessage(receipt *types.Receipt, eth *config.EthBridgeConfig) (*InboxMessage, error) {
	delivered, err := abi.Bridge.FindLogs(receipt.Logs, eth.Bridge, abi.MessageDelivered)
	if err != nil {
		return nil, err
	}
	payloads, err := abi.Inbox.FindLogs(receipt.Logs, eth.Inbox, abi.InboxMessageDelivered)
	if err != nil {
		return nil, err
	}
	for _, d := range delivered {
		index, _ := d["messageIndex"].(*big.Int)
		for _, p := range payloads {
			num, _ := p["messageNum"].(*big.Int)
			if index == nil || num == nil || index.Cmp(num) != 0 {
				continue
			}
			kind, _ := d["kind"].(uint8)
			sender, _ := d["sender"].(common.Address)
			baseFee, _ := d["baseFeeL1"].(*big.Int)
			data, _ := p["data"].([]byte)
			if baseFee == nil {
				baseFee = new(big.Int)
			}
			return &InboxMessage{Number: index, Kind: kind, Sender: sender, BaseFee: baseFee, Data: data}, nil
		}
	}
	return nil, fmt.Errorf("inbox message in %s: %w", receipt.TxHash, ErrMissingEvent)
}

// firstHop returns the chain that receives the inbox message of a deposit. Teleports are
// tracked up to the rollup between the base chain and the orbit chain.
func (t *Tracker) firstHop(tx *entity.Transaction) (*config.ChainConfig, error) {
	child, err := t.chains.Chain(tx.ChildChainID)
	if err != nil {
		return nil, err
	}
	if child.Parent != nil && t.chains.IsGrandchild(tx.ParentChainID, tx.ChildChainID) {
		child = child.Parent
	}
	if child.EthBridge == nil {
		return nil, fmt.Errorf("chain %d has no eth bridge: %w", child.ChainID, ErrMissingEvent)
	}
	return child, nil
}

func (t *Tracker) depositEvidence(ctx context.Context, tx *entity.Transaction, receipt *types.Receipt) ([]reconcile.Evidence, error) {
	res := []reconcile.Evidence{sourceReceipt(receipt)}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return res, nil
	}
	child, err := t.firstHop(tx)
	if err != nil {
		return res, err
	}
	msg, err := FindInboxMessage(receipt, child.EthBridge)
	if err != nil {
		return res, err
	}
	client, err := t.clients.Get(child.ChainID)
	if err != nil {
		return res, err
	}
	logger := t.logger.WithFields(logrus.Fields{
		"tx_id":       tx.TxID,
		"message_num": msg.Number,
		"kind":        msg.Kind,
	})

	var status *reconcile.RetryableStatus
	switch msg.Kind {
	case KindEthDeposit:
		status, err = ethDepositStatus(ctx, client, msg)
	case KindSubmitRetryable:
		status, err = retryableStatus(ctx, client, msg)
	default:
		err = fmt.Errorf("unsupported inbox message kind %d: %w", msg.Kind, ErrMissingEvent)
	}
	if err != nil {
		return res, err
	}
	logger.WithField("state", status.State).Debug("resolved deposit status")
	return append(res, *status), nil
}

func ethDepositStatus(ctx context.Context, client ethclient.Client, msg *InboxMessage) (*reconcile.RetryableStatus, error) {
	id, err := EthDepositID(client.ChainID(), msg)
	if err != nil {
		return nil, err
	}
	status := &reconcile.RetryableStatus{State: reconcile.RetryableNotYetCreated, TicketID: hashPtr(id)}
	receipt, err := childReceipt(ctx, client, id)
	if err != nil || receipt == nil {
		return status, err
	}
	status.ChildTxID = hashPtr(id)
	if receipt.Status == types.ReceiptStatusSuccessful {
		status.State = reconcile.RetryableFundsDeposited
	} else {
		status.State = reconcile.RetryableFailed
	}
	return status, nil
}

func retryableStatus(ctx context.Context, client ethclient.Client, msg *InboxMessage) (*reconcile.RetryableStatus, error) {
	data, err := ParseRetryableData(msg.Data)
	if err != nil {
		return nil, err
	}
	ticketID, err := SubmitRetryableID(client.ChainID(), msg, data)
	if err != nil {
		return nil, err
	}
	status := &reconcile.RetryableStatus{State: reconcile.RetryableNotYetCreated, TicketID: hashPtr(ticketID)}
	creation, err := childReceipt(ctx, client, ticketID)
	if err != nil || creation == nil {
		return status, err
	}
	if creation.Status != types.ReceiptStatusSuccessful {
		status.State = reconcile.RetryableCreationFailed
		return status, nil
	}

	redeemTx, err := findSuccessfulRedeem(ctx, client, ticketID, creation)
	if err != nil {
		return nil, err
	}
	if redeemTx != nil {
		status.State = reconcile.RetryableRedeemed
		status.ChildTxID = redeemTx
		return status, nil
	}

	timeout, err := contract.NewArbRetryableTx(client).GetTimeout(ctx, ticketID)
	if err != nil {
		if isRevert(err) {
			status.State = reconcile.RetryableExpired
			return status, nil
		}
		return nil, fmt.Errorf("can't get retryable timeout: %w", err)
	}
	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("can't get child chain head: %w", err)
	}
	if timeout.Cmp(new(big.Int).SetUint64(head.Time)) <= 0 {
		status.State = reconcile.RetryableExpired
		return status, nil
	}
	status.State = reconcile.RetryableCreated
	return status, nil
}

// findSuccessfulRedeem checks the auto-redeem scheduled by the creation receipt first,
// then every manual redeem scheduled since.
func findSuccessfulRedeem(ctx context.Context, client ethclient.Client, ticketID common.Hash, creation *types.Receipt) (*common.Hash, error) {
	var candidates []common.Hash
	scheduled, err := abi.ArbRetryableTx.FindLogs(creation.Logs, contract.ArbRetryableTxAddress, abi.RedeemScheduled)
	if err != nil {
		return nil, err
	}
	for _, ev := range scheduled {
		if retry, ok := ev["retryTxHash"].([32]byte); ok {
			candidates = append(candidates, common.Hash(retry))
		}
	}
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get child head: %w", err)
	}
	logs, err := scanLogs(ctx, client, ethereum.FilterQuery{
		Addresses: []common.Address{contract.ArbRetryableTxAddress},
		Topics:    [][]common.Hash{{abi.ArbRetryableTx.EventID("RedeemScheduled")}, {ticketID}},
	}, blockNumber(creation), head)
	if err != nil {
		return nil, fmt.Errorf("can't get redeem logs: %w", err)
	}
	for _, log := range logs {
		if len(log.Topics) > 2 {
			candidates = append(candidates, log.Topics[2])
		}
	}
	for _, hash := range candidates {
		receipt, err := childReceipt(ctx, client, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil && receipt.Status == types.ReceiptStatusSuccessful {
			return hashPtr(hash), nil
		}
	}
	return nil, nil
}

func blockNumber(receipt *types.Receipt) uint64 {
	if receipt.BlockNumber == nil {
		return 0
	}
	return receipt.BlockNumber.Uint64()
}
