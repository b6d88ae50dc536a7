package pending

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
)

const subscriptionBuffer = 16

type subscription struct {
	owner common.Address
	ch    chan *entity.Transaction
}

// Store keeps the merged transaction records of every submitted transfer and
// fans out record changes to owner subscriptions.
type Store struct {
	logger logging.Logger
	repo   entity.TransactionsRepo

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
}

func NewStore(logger logging.Logger, repo entity.TransactionsRepo) *Store {
	return &Store{
		logger: logger,
		repo:   repo,
		subs:   make(map[uint64]*subscription),
	}
}

// Upsert inserts the record or merges it into the stored one with the same tx id.
func (s *Store) Upsert(ctx context.Context, tx *entity.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, tx); err != nil {
		return fmt.Errorf("can't upsert transaction: %w", err)
	}
	stored, err := s.repo.GetByTxID(ctx, tx.TxID)
	if err != nil {
		return fmt.Errorf("can't read upserted transaction: %w", err)
	}
	s.notify(stored)
	return nil
}

// GetAll returns the records sent by or to the owner, newest first.
func (s *Store) GetAll(ctx context.Context, owner common.Address) ([]*entity.Transaction, error) {
	res, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("can't get transactions of %s: %w", owner, err)
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, txID common.Hash) (*entity.Transaction, error) {
	return s.repo.GetByTxID(ctx, txID)
}

// UpdateByKey applies the patch to the record with the given tx id only, and
// returns the updated record.
func (s *Store) UpdateByKey(ctx context.Context, txID common.Hash, patch *entity.TransactionPatch) (*entity.Transaction, error) {
	tx, err := s.repo.UpdateByKey(ctx, txID, patch)
	if err != nil {
		return nil, fmt.Errorf("can't update transaction %s: %w", txID, err)
	}
	if !patch.IsEmpty() {
		s.notify(tx)
	}
	return tx, nil
}

// FindPending returns unresolved records, oldest first.
func (s *Store) FindPending(ctx context.Context, limit uint64) ([]*entity.Transaction, error) {
	res, err := s.repo.FindPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("can't find pending transactions: %w", err)
	}
	return res, nil
}

// Subscribe streams every stored change of a record owned by owner. Updates are
// dropped for subscribers that fall behind. The returned func ends the subscription
// and closes the channel.
func (s *Store) Subscribe(owner common.Address) (<-chan *entity.Transaction, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &subscription{owner: owner, ch: make(chan *entity.Transaction, subscriptionBuffer)}
	s.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(sub.ch)
		})
	}
}

func (s *Store) notify(tx *entity.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if !tx.IsOwnedBy(sub.owner) {
			continue
		}
		select {
		case sub.ch <- tx.Clone():
		default:
			s.logger.WithField("tx_id", tx.TxID).WithField("owner", sub.owner).Warn("subscriber is too slow, dropping update")
		}
	}
}
