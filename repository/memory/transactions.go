package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
)

type transactionsRepo struct {
	mu      sync.RWMutex
	records map[common.Hash]*entity.Transaction
	now     func() time.Time
}

// NewTransactionsRepo returns a process-local repo. Records are stored as copies,
// callers never share memory with the repo.
func NewTransactionsRepo() entity.TransactionsRepo {
	return &transactionsRepo{
		records: make(map[common.Hash]*entity.Transaction),
		now:     time.Now,
	}
}

// Upsert merges into a stored record unless that record is already resolved.
func (r *transactionsRepo) Upsert(_ context.Context, tx *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	next := tx.Clone()
	if prev, ok := r.records[tx.TxID]; ok {
		if prev.ResolvedAt != nil {
			return nil
		}
		next.CreatedAt = prev.CreatedAt
		next.Coalesce(prev)
	} else if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now
	r.records[tx.TxID] = next
	return nil
}

func (r *transactionsRepo) GetByTxID(_ context.Context, txID common.Hash) (*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.records[txID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txID, db.ErrNotFound)
	}
	return tx.Clone(), nil
}

func (r *transactionsRepo) FindByOwner(_ context.Context, owner common.Address) ([]*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*entity.Transaction, 0, 10)
	for _, tx := range r.records {
		if tx.IsOwnedBy(owner) {
			res = append(res, tx.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (r *transactionsRepo) FindPending(_ context.Context, limit uint64) ([]*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*entity.Transaction, 0, 10)
	for _, tx := range r.records {
		if tx.ResolvedAt == nil {
			res = append(res, tx.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	if limit > 0 && uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *transactionsRepo) UpdateByKey(_ context.Context, txID common.Hash, patch *entity.TransactionPatch) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.records[txID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txID, db.ErrNotFound)
	}
	if !patch.IsEmpty() {
		tx.Apply(patch)
		tx.UpdatedAt = r.now().UTC()
	}
	return tx.Clone(), nil
}
