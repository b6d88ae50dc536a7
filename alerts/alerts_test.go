package alerts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/alerts"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
)

type pendingRepo struct {
	entity.TransactionsRepo
	records []*entity.Transaction
	err     error
}

func (r *pendingRepo) FindPending(context.Context, uint64) ([]*entity.Transaction, error) {
	return r.records, r.err
}

func record(txID string, status entity.TransferStatus, age time.Duration) *entity.Transaction {
	ts := time.Now().Add(-age)
	return &entity.Transaction{
		TxID:               common.HexToHash(txID),
		Type:               entity.TransferTypeEthDeposit,
		Status:             status,
		SourceChainID:      1,
		DestinationChainID: 42161,
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
}

func TestStoreAlertsProvider(t *testing.T) {
	t.Parallel()

	ticket := common.HexToHash("0xaa")
	redeemable := record("0x03", entity.StatusL2Pending, 48*time.Hour)
	redeemable.UniqueID = &ticket
	repo := &pendingRepo{records: []*entity.Transaction{
		record("0x01", entity.StatusL1Pending, 2*time.Hour),
		record("0x02", entity.StatusL1Pending, time.Minute),
		redeemable,
		record("0x04", entity.StatusUnconfirmed, 72*time.Hour),
		record("0x05", entity.StatusCctpAttested, time.Hour),
	}}
	p := alerts.NewStoreAlertsProvider(repo)
	ctx := context.Background()

	res, err := p.FindStuckTransfers(ctx, &alerts.AlertJobParams{StuckAfter: time.Hour})
	require.NoError(t, err)
	stuck, ok := res.([]alerts.StuckTransfer)
	require.True(t, ok)
	require.Len(t, stuck, 3)
	require.Equal(t, common.HexToHash("0x01"), stuck[0].TxHash)
	require.GreaterOrEqual(t, stuck[0].Age, int64(7200))

	res, err = p.FindUnredeemedRetryables(ctx, &alerts.AlertJobParams{StuckAfter: 24 * time.Hour})
	require.NoError(t, err)
	require.Equal(t, []alerts.UnredeemedRetryable{{ChainID: 1, TxHash: redeemable.TxID, TicketID: ticket, Age: res.([]alerts.UnredeemedRetryable)[0].Age}}, res)

	res, err = p.FindUnclaimedCctp(ctx, &alerts.AlertJobParams{StuckAfter: 2 * time.Hour})
	require.NoError(t, err)
	require.Empty(t, res)

	repo.err = errors.New("boom")
	_, err = p.FindUnclaimedCctp(ctx, &alerts.AlertJobParams{})
	require.Error(t, err)
}

func TestConvertToAlertMetricValues(t *testing.T) {
	t.Parallel()

	values, err := alerts.ConvertToAlertMetricValues([]alerts.UnclaimedCctp{{
		ChainID:            42161,
		TxHash:             common.HexToHash("0x01"),
		DestinationChainID: 1,
		Age:                90,
	}})
	require.NoError(t, err)
	require.Len(t, values, 1)
	require.Equal(t, 90.0, values[0].Value())
	require.Equal(t, "42161", values[0].Labels()["chain_id"])
	require.Equal(t, "1", values[0].Labels()["destination_chain_id"])
	require.NotContains(t, values[0].Labels(), alerts.ValueLabelTag)
}

//nolint:paralleltest
func TestAlertManager_RunOnce(t *testing.T) {
	repo := &pendingRepo{records: []*entity.Transaction{
		record("0x05", entity.StatusCctpAttested, 2*time.Hour),
	}}
	m, err := alerts.NewAlertManager(logging.Nop(), repo, map[string]*config.AlertConfig{
		alerts.AlertUnclaimedCctpName: {StuckAfter: time.Hour},
		alerts.AlertStuckTransferName: nil,
	})
	require.NoError(t, err)

	job, ok := m.Job(alerts.AlertUnclaimedCctpName)
	require.True(t, ok)
	require.Equal(t, time.Hour, job.Params.StuckAfter)
	count, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 1, testutil.CollectAndCount(alerts.AlertUnclaimedCctp))

	repo.records = nil
	count, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, testutil.CollectAndCount(alerts.AlertUnclaimedCctp))

	_, err = alerts.NewAlertManager(logging.Nop(), repo, map[string]*config.AlertConfig{"unknown": nil})
	require.Error(t, err)
}
