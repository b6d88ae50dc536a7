package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/entity"
)

// scanLimit bounds the number of unresolved records inspected per job iteration.
const scanLimit = 5000

type StoreAlertsProvider struct {
	repo entity.TransactionsRepo
	now  func() time.Time
}

func NewStoreAlertsProvider(repo entity.TransactionsRepo) *StoreAlertsProvider {
	return &StoreAlertsProvider{
		repo: repo,
		now:  time.Now,
	}
}

type StuckTransfer struct {
	ChainID uint64      `json:"chain_id,string"`
	TxHash  common.Hash `json:"tx_hash"`
	Type    string      `json:"type"`
	Status  string      `json:"status"`
	Age     int64       `json:"_value,string"`
}

type UnclaimedCctp struct {
	ChainID            uint64      `json:"chain_id,string"`
	TxHash             common.Hash `json:"tx_hash"`
	DestinationChainID uint64      `json:"destination_chain_id,string"`
	Age                int64       `json:"_value,string"`
}

type UnredeemedRetryable struct {
	ChainID  uint64      `json:"chain_id,string"`
	TxHash   common.Hash `json:"tx_hash"`
	TicketID common.Hash `json:"ticket_id"`
	Age      int64       `json:"_value,string"`
}

func (p *StoreAlertsProvider) pending(ctx context.Context) ([]*entity.Transaction, error) {
	txs, err := p.repo.FindPending(ctx, scanLimit)
	if err != nil {
		return nil, fmt.Errorf("can't select pending transactions: %w", err)
	}
	return txs, nil
}

// FindStuckTransfers reports every unresolved record submitted more than StuckAfter ago.
// Withdrawals waiting for the challenge period are expected to be old and are skipped.
func (p *StoreAlertsProvider) FindStuckTransfers(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	txs, err := p.pending(ctx)
	if err != nil {
		return nil, err
	}
	now := p.now()
	res := make([]StuckTransfer, 0, 5)
	for _, tx := range txs {
		if tx.Status == entity.StatusUnconfirmed || tx.Status == entity.StatusConfirmed {
			continue
		}
		age := now.Sub(tx.CreatedAt)
		if age < params.StuckAfter {
			continue
		}
		res = append(res, StuckTransfer{
			ChainID: tx.SourceChainID,
			TxHash:  tx.TxID,
			Type:    string(tx.Type),
			Status:  string(tx.Status),
			Age:     int64(age.Seconds()),
		})
	}
	return res, nil
}

func (p *StoreAlertsProvider) FindUnclaimedCctp(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	txs, err := p.pending(ctx)
	if err != nil {
		return nil, err
	}
	now := p.now()
	res := make([]UnclaimedCctp, 0, 5)
	for _, tx := range txs {
		if tx.Status != entity.StatusCctpAttested {
			continue
		}
		age := now.Sub(tx.UpdatedAt)
		if age < params.StuckAfter {
			continue
		}
		res = append(res, UnclaimedCctp{
			ChainID:            tx.SourceChainID,
			TxHash:             tx.TxID,
			DestinationChainID: tx.DestinationChainID,
			Age:                int64(age.Seconds()),
		})
	}
	return res, nil
}

func (p *StoreAlertsProvider) FindUnredeemedRetryables(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	txs, err := p.pending(ctx)
	if err != nil {
		return nil, err
	}
	now := p.now()
	res := make([]UnredeemedRetryable, 0, 5)
	for _, tx := range txs {
		if tx.Status != entity.StatusL2Pending || tx.UniqueID == nil {
			continue
		}
		age := now.Sub(tx.UpdatedAt)
		if age < params.StuckAfter {
			continue
		}
		res = append(res, UnredeemedRetryable{
			ChainID:  tx.SourceChainID,
			TxHash:   tx.TxID,
			TicketID: *tx.UniqueID,
			Age:      int64(age.Seconds()),
		})
	}
	return res, nil
}
