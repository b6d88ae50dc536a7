package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
)

const maxWatchRetries = 10

var ErrTooManyConflicts = errors.New("too many concurrent updates of the same key")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type transactionsRepo struct {
	prefix string
	client redis.UniversalClient
	now    func() time.Time
}

// NewTransactionsRepo stores every record as a JSON blob under <prefix>:tx:<hash>,
// with sorted-set indexes per owner and for unresolved records.
func NewTransactionsRepo(prefix string, client redis.UniversalClient) entity.TransactionsRepo {
	return &transactionsRepo{
		prefix: prefix,
		client: client,
		now:    time.Now,
	}
}

func (r *transactionsRepo) txKey(txID common.Hash) string {
	return fmt.Sprintf("%s:tx:%s", r.prefix, strings.ToLower(txID.Hex()))
}

func (r *transactionsRepo) ownerKey(owner common.Address) string {
	return fmt.Sprintf("%s:owner:%s", r.prefix, strings.ToLower(owner.Hex()))
}

func (r *transactionsRepo) pendingKey() string {
	return r.prefix + ":pending"
}

func (r *transactionsRepo) Upsert(ctx context.Context, tx *entity.Transaction) error {
	key := r.txKey(tx.TxID)
	return r.watch(ctx, key, func(rtx *redis.Tx) error {
		next := tx.Clone()
		prev, err := r.get(ctx, rtx, key)
		now := r.now().UTC()
		switch {
		case err == nil:
			if prev.ResolvedAt != nil {
				return nil
			}
			next.CreatedAt = prev.CreatedAt
			next.Coalesce(prev)
		case errors.Is(err, db.ErrNotFound):
			if next.CreatedAt.IsZero() {
				next.CreatedAt = now
			}
		default:
			return err
		}
		next.UpdatedAt = now
		return r.write(ctx, rtx, next)
	})
}

func (r *transactionsRepo) UpdateByKey(ctx context.Context, txID common.Hash, patch *entity.TransactionPatch) (*entity.Transaction, error) {
	key := r.txKey(txID)
	var res *entity.Transaction
	err := r.watch(ctx, key, func(rtx *redis.Tx) error {
		tx, err := r.get(ctx, rtx, key)
		if err != nil {
			return err
		}
		if !patch.IsEmpty() {
			tx.Apply(patch)
			tx.UpdatedAt = r.now().UTC()
			if err = r.write(ctx, rtx, tx); err != nil {
				return err
			}
		}
		res = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *transactionsRepo) GetByTxID(ctx context.Context, txID common.Hash) (*entity.Transaction, error) {
	return r.get(ctx, r.client, r.txKey(txID))
}

func (r *transactionsRepo) FindByOwner(ctx context.Context, owner common.Address) ([]*entity.Transaction, error) {
	ids, err := r.client.ZRevRange(ctx, r.ownerKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("can't read owner index: %w", err)
	}
	return r.mget(ctx, ids)
}

func (r *transactionsRepo) FindPending(ctx context.Context, limit uint64) ([]*entity.Transaction, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := r.client.ZRange(ctx, r.pendingKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("can't read pending index: %w", err)
	}
	return r.mget(ctx, ids)
}

func (r *transactionsRepo) watch(ctx context.Context, key string, fn func(rtx *redis.Tx) error) error {
	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("can't update %s: %w", key, ErrTooManyConflicts)
}

func (r *transactionsRepo) get(ctx context.Context, c getter, key string) (*entity.Transaction, error) {
	blob, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("transaction %s: %w", key, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("can't get transaction: %w", err)
	}
	tx := new(entity.Transaction)
	if err = json.Unmarshal(blob, tx); err != nil {
		return nil, fmt.Errorf("can't decode transaction: %w", err)
	}
	return tx, nil
}

func (r *transactionsRepo) write(ctx context.Context, rtx *redis.Tx, tx *entity.Transaction) error {
	blob, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("can't encode transaction: %w", err)
	}
	member := strings.ToLower(tx.TxID.Hex())
	score := float64(tx.CreatedAt.UnixNano())
	_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.txKey(tx.TxID), blob, 0)
		pipe.ZAdd(ctx, r.ownerKey(tx.Sender), redis.Z{Score: score, Member: member})
		if tx.Destination != tx.Sender {
			pipe.ZAdd(ctx, r.ownerKey(tx.Destination), redis.Z{Score: score, Member: member})
		}
		if tx.ResolvedAt == nil {
			pipe.ZAdd(ctx, r.pendingKey(), redis.Z{Score: score, Member: member})
		} else {
			pipe.ZRem(ctx, r.pendingKey(), member)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("can't write transaction: %w", err)
	}
	return nil
}

func (r *transactionsRepo) mget(ctx context.Context, ids []string) ([]*entity.Transaction, error) {
	res := make([]*entity.Transaction, 0, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("%s:tx:%s", r.prefix, id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("can't get transactions: %w", err)
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		tx := new(entity.Transaction)
		if err = json.Unmarshal([]byte(s), tx); err != nil {
			return nil, fmt.Errorf("can't decode transaction: %w", err)
		}
		res = append(res, tx)
	}
	return res, nil
}
