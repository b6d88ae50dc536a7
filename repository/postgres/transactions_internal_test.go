package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/entity"
)

func TestBuildUpsertQuery(t *testing.T) {
	t.Parallel()

	tx := &entity.Transaction{
		TxID:      common.HexToHash("0x01"),
		Direction: entity.DirectionDepositL1,
		Status:    entity.StatusL1Pending,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Cctp:      &entity.CctpData{SourceDomain: 3},
	}
	q, args, err := buildUpsertQuery("transactions", tx)
	require.NoError(t, err)
	require.Contains(t, q, "INSERT INTO transactions (tx_id,unique_id,direction,")
	require.Contains(t, q, "ON CONFLICT (tx_id) DO UPDATE SET")
	require.Contains(t, q, "$25")
	require.True(t, strings.HasSuffix(q, "WHERE transactions.resolved_at IS NULL"))
	require.Len(t, args, len(transactionColumns))
	require.Equal(t, tx.TxID, args[0])
	domain, ok := args[17].(*uint32)
	require.True(t, ok)
	require.Equal(t, uint32(3), *domain)
}

func TestBuildUpdateQuery(t *testing.T) {
	t.Parallel()

	status := entity.StatusL2Success
	resolved := time.Unix(1700000000, 0).UTC()
	q, args, err := buildUpdateQuery("transactions", common.HexToHash("0x01"), &entity.TransactionPatch{
		Status:     &status,
		ResolvedAt: &resolved,
	})
	require.NoError(t, err)
	require.Equal(t, "UPDATE transactions SET resolved_at = $1, status = $2, updated_at = NOW() WHERE tx_id = $3 RETURNING *", q)
	require.Equal(t, []interface{}{resolved, "L2_SUCCESS", common.HexToHash("0x01").Bytes()}, args)
}

func TestBuildFindPendingQuery(t *testing.T) {
	t.Parallel()

	q, args, err := buildFindPendingQuery("transactions", 100)
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM transactions WHERE resolved_at IS NULL ORDER BY created_at LIMIT 100", q)
	require.Empty(t, args)
}

func TestTransactionRow_RoundTrip(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0x02")
	tx := &entity.Transaction{
		TxID:      common.HexToHash("0x01"),
		Direction: entity.DirectionDeposit,
		Status:    entity.StatusCctpPendingAttestation,
		Cctp:      &entity.CctpData{SourceDomain: 0, AttestationHash: &hash, MessageBytes: []byte{1, 2}},
	}
	require.Equal(t, tx, newTransactionRow(tx).toEntity())

	plain := &entity.Transaction{TxID: common.HexToHash("0x03"), Direction: entity.DirectionWithdraw}
	require.Nil(t, newTransactionRow(plain).toEntity().Cctp)
}
