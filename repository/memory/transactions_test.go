package memory_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/repository/memory"
)

var (
	alice = common.HexToAddress("0x01")
	bob   = common.HexToAddress("0x02")
)

func newRecord(i int, sender common.Address, createdAt time.Time) *entity.Transaction {
	return &entity.Transaction{
		TxID:          common.BigToHash(big.NewInt(int64(i + 1))),
		Direction:     entity.DirectionDepositL1,
		Type:          entity.TransferTypeEthDeposit,
		Status:        entity.StatusL1Pending,
		Asset:         "ETH",
		AssetType:     entity.AssetTypeNative,
		Value:         "1.0",
		Sender:        sender,
		Destination:   sender,
		ParentChainID: 1,
		ChildChainID:  42161,
		CreatedAt:     createdAt,
	}
}

func TestTransactionsRepo_ConcurrentUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTransactionsRepo()
	base := time.Unix(1700000000, 0).UTC()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, repo.Upsert(ctx, newRecord(i, alice, base.Add(time.Duration(i)*time.Second))))
		}(i)
	}
	wg.Wait()

	records, err := repo.FindByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, records, 50)
	for i := 1; i < len(records); i++ {
		require.True(t, records[i-1].CreatedAt.After(records[i].CreatedAt))
	}
	seen := make(map[common.Hash]bool, len(records))
	for _, r := range records {
		seen[r.TxID] = true
	}
	require.Len(t, seen, 50)
}

func TestTransactionsRepo_UpdateByKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTransactionsRepo()
	now := time.Now().UTC()
	first := newRecord(1, alice, now)
	second := newRecord(2, bob, now)
	require.NoError(t, repo.Upsert(ctx, first))
	require.NoError(t, repo.Upsert(ctx, second))

	status := entity.StatusL2Success
	updated, err := repo.UpdateByKey(ctx, first.TxID, &entity.TransactionPatch{Status: &status, ResolvedAt: &now})
	require.NoError(t, err)
	require.Equal(t, entity.StatusL2Success, updated.Status)

	got, err := repo.GetByTxID(ctx, first.TxID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusL2Success, got.Status)
	require.NotNil(t, got.ResolvedAt)

	other, err := repo.GetByTxID(ctx, second.TxID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusL1Pending, other.Status)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.TxID, pending[0].TxID)

	_, err = repo.UpdateByKey(ctx, common.HexToHash("0xdead"), &entity.TransactionPatch{Status: &status})
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestTransactionsRepo_ConcurrentUpdatesOfDifferentKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTransactionsRepo()
	now := time.Now().UTC()
	for i := 0; i < 20; i++ {
		require.NoError(t, repo.Upsert(ctx, newRecord(i, alice, now)))
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := uint64(i)
			_, err := repo.UpdateByKey(ctx, newRecord(i, alice, now).TxID, &entity.TransactionPatch{BlockNum: &n})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		got, err := repo.GetByTxID(ctx, newRecord(i, alice, now).TxID)
		require.NoError(t, err)
		require.NotNil(t, got.BlockNum, fmt.Sprintf("record %d", i))
		require.Equal(t, uint64(i), *got.BlockNum)
	}
}

func TestTransactionsRepo_UpsertKeepsGatheredFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTransactionsRepo()
	record := newRecord(1, alice, time.Now().UTC())
	require.NoError(t, repo.Upsert(ctx, record))

	childTx := common.HexToHash("0xbeef")
	_, err := repo.UpdateByKey(ctx, record.TxID, &entity.TransactionPatch{ChildTxID: &childTx})
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, record))
	got, err := repo.GetByTxID(ctx, record.TxID)
	require.NoError(t, err)
	require.Equal(t, &childTx, got.ChildTxID)
}

func TestCustomChainsRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewCustomChainsRepo()
	require.NoError(t, repo.Ensure(ctx, &entity.CustomChain{ChainID: 7, Name: "first"}))
	require.NoError(t, repo.Ensure(ctx, &entity.CustomChain{ChainID: 7, Name: "second"}))
	require.NoError(t, repo.Ensure(ctx, &entity.CustomChain{ChainID: 3, Name: "third"}))

	chains, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	require.Equal(t, uint64(3), chains[0].ChainID)
	require.Equal(t, "first", chains[1].Name)

	require.NoError(t, repo.Delete(ctx, 7))
	chains, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 1)
}

func TestTransactionsRepo_UpsertKeepsResolvedRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTransactionsRepo()
	now := time.Now().UTC()
	record := newRecord(1, alice, now)
	require.NoError(t, repo.Upsert(ctx, record))

	status := entity.StatusL2Success
	_, err := repo.UpdateByKey(ctx, record.TxID, &entity.TransactionPatch{Status: &status, ResolvedAt: &now})
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, newRecord(1, alice, now)))
	got, err := repo.GetByTxID(ctx, record.TxID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusL2Success, got.Status)
	require.NotNil(t, got.ResolvedAt)
	require.NoError(t, got.Validate())

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
