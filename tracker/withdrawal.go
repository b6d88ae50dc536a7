package tracker

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/reconcile"
)

// L2ToL1Message is the outgoing message emitted by ArbSys for a withdrawal.
type L2ToL1Message struct {
	Position    *big.Int
	EthBlockNum *big.Int
	Destination common.Address
}

func FindL2ToL1Message(receipt *types.Receipt) (*L2ToL1Message, error) {
	events, err := abi.ArbSys.FindLogs(receipt.Logs, contract.ArbSysAddress, abi.L2ToL1Tx)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("L2ToL1Tx in %s: %w", receipt.TxHash, ErrMissingEvent)
	}
	ev := events[0]
	position, _ := ev["position"].(*big.Int)
	ethBlockNum, _ := ev["ethBlockNum"].(*big.Int)
	destination, _ := ev["destination"].(common.Address)
	if position == nil || ethBlockNum == nil {
		return nil, fmt.Errorf("malformed L2ToL1Tx in %s: %w", receipt.TxHash, ErrMissingEvent)
	}
	return &L2ToL1Message{Position: position, EthBlockNum: ethBlockNum, Destination: destination}, nil
}

// withdrawalEvidence considers a withdrawal confirmed once the parent chain advanced
// the confirmation period past the block the message was sent in.
func (t *Tracker) withdrawalEvidence(ctx context.Context, tx *entity.Transaction, receipt *types.Receipt) ([]reconcile.Evidence, error) {
	res := []reconcile.Evidence{sourceReceipt(receipt)}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return res, nil
	}
	source, err := t.chains.Chain(tx.SourceChainID)
	if err != nil {
		return res, err
	}
	if source.Parent == nil || source.EthBridge == nil {
		return res, fmt.Errorf("chain %d can't withdraw: %w", source.ChainID, ErrMissingEvent)
	}
	msg, err := FindL2ToL1Message(receipt)
	if err != nil {
		return res, err
	}
	parent, err := t.clients.Get(source.Parent.ChainID)
	if err != nil {
		return res, err
	}

	status := reconcile.WithdrawalStatus{
		State:    reconcile.WithdrawalUnconfirmed,
		Position: hashPtr(common.BigToHash(msg.Position)),
	}
	spent, err := contract.NewOutbox(parent, source.EthBridge.Outbox).IsSpent(ctx, msg.Position)
	if err != nil {
		return res, fmt.Errorf("can't check outbox entry: %w", err)
	}
	if spent {
		status.State = reconcile.WithdrawalExecuted
		return append(res, status), nil
	}
	head, err := parent.BlockNumber(ctx)
	if err != nil {
		return res, fmt.Errorf("can't get parent chain head: %w", err)
	}
	confirmedAt := new(big.Int).Add(msg.EthBlockNum, new(big.Int).SetUint64(source.ConfirmPeriodBlocks))
	if confirmedAt.Cmp(new(big.Int).SetUint64(head)) <= 0 {
		status.State = reconcile.WithdrawalConfirmed
	}
	return append(res, status), nil
}
