package pending_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/pending"
	"github.com/omni/tokenbridge-transfers/repository/memory"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newStore() *pending.Store {
	return pending.NewStore(logging.Nop(), memory.NewTransactionsRepo())
}

func depositRecord(txID string, sender common.Address) *entity.Transaction {
	return &entity.Transaction{
		TxID:               common.HexToHash(txID),
		Direction:          entity.DirectionDepositL1,
		Type:               entity.TransferTypeEthDeposit,
		Status:             entity.StatusL1Pending,
		Asset:              "ETH",
		AssetType:          entity.AssetTypeNative,
		Value:              "1.0",
		Sender:             sender,
		Destination:        sender,
		ParentChainID:      1,
		ChildChainID:       42161,
		SourceChainID:      1,
		DestinationChainID: 42161,
	}
}

func TestStore_UpsertAndGetAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore()

	first := depositRecord("0x01", alice)
	require.NoError(t, store.Upsert(ctx, first))
	time.Sleep(time.Millisecond)
	second := depositRecord("0x02", bob)
	second.Destination = alice
	require.NoError(t, store.Upsert(ctx, second))
	require.NoError(t, store.Upsert(ctx, depositRecord("0x03", bob)))

	res, err := store.GetAll(ctx, alice)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, second.TxID, res[0].TxID)
	require.Equal(t, first.TxID, res[1].TxID)

	res, err = store.GetAll(ctx, common.HexToAddress("0x01"))
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestStore_UpsertInvalid(t *testing.T) {
	t.Parallel()

	tx := depositRecord("0x01", alice)
	tx.Status = entity.StatusL2Success
	require.ErrorIs(t, newStore().Upsert(context.Background(), tx), entity.ErrInvalidTransaction)
}

func TestStore_UpdateByKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore()
	require.NoError(t, store.Upsert(ctx, depositRecord("0x01", alice)))
	require.NoError(t, store.Upsert(ctx, depositRecord("0x02", alice)))

	status := entity.StatusL1Confirmed
	block := uint64(77)
	updated, err := store.UpdateByKey(ctx, common.HexToHash("0x01"), &entity.TransactionPatch{Status: &status, BlockNum: &block})
	require.NoError(t, err)
	require.Equal(t, entity.StatusL1Confirmed, updated.Status)
	require.Equal(t, &block, updated.BlockNum)

	other, err := store.Get(ctx, common.HexToHash("0x02"))
	require.NoError(t, err)
	require.Equal(t, entity.StatusL1Pending, other.Status)
	require.Nil(t, other.BlockNum)

	_, err = store.UpdateByKey(ctx, common.HexToHash("0x03"), &entity.TransactionPatch{Status: &status})
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestStore_UpsertAfterResolved(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore()
	require.NoError(t, store.Upsert(ctx, depositRecord("0x01", alice)))

	status := entity.StatusL2Success
	resolved := time.Now().UTC()
	_, err := store.UpdateByKey(ctx, common.HexToHash("0x01"), &entity.TransactionPatch{Status: &status, ResolvedAt: &resolved})
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, depositRecord("0x01", alice)))
	got, err := store.Get(ctx, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, entity.StatusL2Success, got.Status)
	require.NoError(t, got.Validate())
}

func TestStore_ConcurrentUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		store := newStore()
		var wg sync.WaitGroup
		for _, id := range []string{"0x01", "0x02"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				require.NoError(t, store.Upsert(ctx, depositRecord(id, alice)))
			}(id)
		}
		wg.Wait()

		res, err := store.GetAll(ctx, alice)
		require.NoError(t, err)
		require.Len(t, res, 2)
	}
}

func TestStore_ConcurrentKeyedUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore()
	require.NoError(t, store.Upsert(ctx, depositRecord("0x01", alice)))
	require.NoError(t, store.Upsert(ctx, depositRecord("0x02", alice)))

	confirmed, failed := entity.StatusL1Confirmed, entity.StatusL1Failure
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := store.UpdateByKey(ctx, common.HexToHash("0x01"), &entity.TransactionPatch{Status: &confirmed})
		require.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		now := time.Now()
		_, err := store.UpdateByKey(ctx, common.HexToHash("0x02"), &entity.TransactionPatch{Status: &failed, ResolvedAt: &now})
		require.NoError(t, err)
	}()
	wg.Wait()

	first, err := store.Get(ctx, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, entity.StatusL1Confirmed, first.Status)
	second, err := store.Get(ctx, common.HexToHash("0x02"))
	require.NoError(t, err)
	require.Equal(t, entity.StatusL1Failure, second.Status)
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore()
	updates, cancel := store.Subscribe(alice)

	require.NoError(t, store.Upsert(ctx, depositRecord("0x01", bob)))
	require.NoError(t, store.Upsert(ctx, depositRecord("0x02", alice)))

	select {
	case tx := <-updates:
		require.Equal(t, common.HexToHash("0x02"), tx.TxID)
	case <-time.After(time.Second):
		require.Fail(t, "no update received")
	}

	status := entity.StatusL1Confirmed
	_, err := store.UpdateByKey(ctx, common.HexToHash("0x02"), &entity.TransactionPatch{Status: &status})
	require.NoError(t, err)
	tx := <-updates
	require.Equal(t, entity.StatusL1Confirmed, tx.Status)

	// empty patches are not broadcast
	_, err = store.UpdateByKey(ctx, common.HexToHash("0x02"), nil)
	require.NoError(t, err)
	require.Empty(t, updates)

	cancel()
	cancel()
	_, ok := <-updates
	require.False(t, ok)
	require.NoError(t, store.Upsert(ctx, depositRecord("0x03", alice)))
}

func TestStore_SlowSubscriber(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore()
	updates, cancel := store.Subscribe(alice)
	defer cancel()

	for i := 0; i < 100; i++ {
		require.NoError(t, store.Upsert(ctx, depositRecord("0x01", alice)))
	}
	require.Equal(t, cap(updates), len(updates))
}
