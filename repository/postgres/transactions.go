package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
)

var transactionColumns = []string{
	"tx_id", "unique_id", "direction", "type", "status", "asset", "asset_type", "token_address", "value",
	"sender", "destination", "parent_chain_id", "child_chain_id", "source_chain_id", "destination_chain_id",
	"block_num", "child_tx_id", "cctp_source_domain", "cctp_attestation_hash", "cctp_message_bytes",
	"cctp_attestation", "cctp_receive_tx_hash", "cctp_receive_timestamp", "created_at", "resolved_at",
}

type transactionRow struct {
	TxID                 common.Hash     `db:"tx_id"`
	UniqueID             *common.Hash    `db:"unique_id"`
	Direction            string          `db:"direction"`
	Type                 string          `db:"type"`
	Status               string          `db:"status"`
	Asset                string          `db:"asset"`
	AssetType            string          `db:"asset_type"`
	TokenAddress         *common.Address `db:"token_address"`
	Value                string          `db:"value"`
	Sender               common.Address  `db:"sender"`
	Destination          common.Address  `db:"destination"`
	ParentChainID        uint64          `db:"parent_chain_id"`
	ChildChainID         uint64          `db:"child_chain_id"`
	SourceChainID        uint64          `db:"source_chain_id"`
	DestinationChainID   uint64          `db:"destination_chain_id"`
	BlockNum             *uint64         `db:"block_num"`
	ChildTxID            *common.Hash    `db:"child_tx_id"`
	CctpSourceDomain     *uint32         `db:"cctp_source_domain"`
	CctpAttestationHash  *common.Hash    `db:"cctp_attestation_hash"`
	CctpMessageBytes     []byte          `db:"cctp_message_bytes"`
	CctpAttestation      []byte          `db:"cctp_attestation"`
	CctpReceiveTxHash    *common.Hash    `db:"cctp_receive_tx_hash"`
	CctpReceiveTimestamp *time.Time      `db:"cctp_receive_timestamp"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
	ResolvedAt           *time.Time      `db:"resolved_at"`
}

func newTransactionRow(tx *entity.Transaction) *transactionRow {
	row := &transactionRow{
		TxID:               tx.TxID,
		UniqueID:           tx.UniqueID,
		Direction:          string(tx.Direction),
		Type:               string(tx.Type),
		Status:             string(tx.Status),
		Asset:              tx.Asset,
		AssetType:          string(tx.AssetType),
		TokenAddress:       tx.TokenAddress,
		Value:              tx.Value,
		Sender:             tx.Sender,
		Destination:        tx.Destination,
		ParentChainID:      tx.ParentChainID,
		ChildChainID:       tx.ChildChainID,
		SourceChainID:      tx.SourceChainID,
		DestinationChainID: tx.DestinationChainID,
		BlockNum:           tx.BlockNum,
		ChildTxID:          tx.ChildTxID,
		CreatedAt:          tx.CreatedAt,
		UpdatedAt:          tx.UpdatedAt,
		ResolvedAt:         tx.ResolvedAt,
	}
	if tx.Cctp != nil {
		domain := tx.Cctp.SourceDomain
		row.CctpSourceDomain = &domain
		row.CctpAttestationHash = tx.Cctp.AttestationHash
		row.CctpMessageBytes = tx.Cctp.MessageBytes
		row.CctpAttestation = tx.Cctp.Attestation
		row.CctpReceiveTxHash = tx.Cctp.ReceiveMessageTransactionHash
		row.CctpReceiveTimestamp = tx.Cctp.ReceiveMessageTimestamp
	}
	return row
}

func (r *transactionRow) values() []interface{} {
	return []interface{}{
		r.TxID, r.UniqueID, r.Direction, r.Type, r.Status, r.Asset, r.AssetType, r.TokenAddress, r.Value,
		r.Sender, r.Destination, r.ParentChainID, r.ChildChainID, r.SourceChainID, r.DestinationChainID,
		r.BlockNum, r.ChildTxID, r.CctpSourceDomain, r.CctpAttestationHash, r.CctpMessageBytes,
		r.CctpAttestation, r.CctpReceiveTxHash, r.CctpReceiveTimestamp, r.CreatedAt, r.ResolvedAt,
	}
}

func (r *transactionRow) toEntity() *entity.Transaction {
	tx := &entity.Transaction{
		TxID:               r.TxID,
		UniqueID:           r.UniqueID,
		Direction:          entity.Direction(r.Direction),
		Type:               entity.TransferType(r.Type),
		Status:             entity.TransferStatus(r.Status),
		Asset:              r.Asset,
		AssetType:          entity.AssetType(r.AssetType),
		TokenAddress:       r.TokenAddress,
		Value:              r.Value,
		Sender:             r.Sender,
		Destination:        r.Destination,
		ParentChainID:      r.ParentChainID,
		ChildChainID:       r.ChildChainID,
		SourceChainID:      r.SourceChainID,
		DestinationChainID: r.DestinationChainID,
		BlockNum:           r.BlockNum,
		ChildTxID:          r.ChildTxID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		ResolvedAt:         r.ResolvedAt,
	}
	if r.CctpSourceDomain != nil {
		tx.Cctp = &entity.CctpData{
			SourceDomain:                  *r.CctpSourceDomain,
			AttestationHash:               r.CctpAttestationHash,
			MessageBytes:                  r.CctpMessageBytes,
			Attestation:                   r.CctpAttestation,
			ReceiveMessageTransactionHash: r.CctpReceiveTxHash,
			ReceiveMessageTimestamp:       r.CctpReceiveTimestamp,
		}
	}
	return tx
}

type transactionsRepo basePostgresRepo

func NewTransactionsRepo(table string, db *db.DB) entity.TransactionsRepo {
	return (*transactionsRepo)(newBasePostgresRepo(table, db))
}

func (r *transactionsRepo) Upsert(ctx context.Context, tx *entity.Transaction) error {
	q, args, err := buildUpsertQuery(r.table, tx)
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't upsert transaction: %w", err)
	}
	return nil
}

// buildUpsertQuery leaves resolved rows untouched, a terminal record is never superseded.
func buildUpsertQuery(table string, tx *entity.Transaction) (string, []interface{}, error) {
	row := newTransactionRow(tx)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return sq.Insert(table).
		Columns(transactionColumns...).
		Values(row.values()...).
		Suffix("ON CONFLICT (tx_id) DO UPDATE SET " +
			"unique_id = COALESCE(EXCLUDED.unique_id, " + table + ".unique_id), " +
			"status = EXCLUDED.status, " +
			"block_num = COALESCE(EXCLUDED.block_num, " + table + ".block_num), " +
			"child_tx_id = COALESCE(EXCLUDED.child_tx_id, " + table + ".child_tx_id), " +
			"cctp_attestation_hash = COALESCE(EXCLUDED.cctp_attestation_hash, " + table + ".cctp_attestation_hash), " +
			"cctp_message_bytes = COALESCE(EXCLUDED.cctp_message_bytes, " + table + ".cctp_message_bytes), " +
			"cctp_attestation = COALESCE(EXCLUDED.cctp_attestation, " + table + ".cctp_attestation), " +
			"cctp_receive_tx_hash = COALESCE(EXCLUDED.cctp_receive_tx_hash, " + table + ".cctp_receive_tx_hash), " +
			"cctp_receive_timestamp = COALESCE(EXCLUDED.cctp_receive_timestamp, " + table + ".cctp_receive_timestamp), " +
			"resolved_at = COALESCE(EXCLUDED.resolved_at, " + table + ".resolved_at), " +
			"updated_at = NOW() " +
			"WHERE " + table + ".resolved_at IS NULL").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *transactionsRepo) GetByTxID(ctx context.Context, txID common.Hash) (*entity.Transaction, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"tx_id": txID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	row := new(transactionRow)
	err = r.db.GetContext(ctx, row, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get transaction: %w", err)
	}
	return row.toEntity(), nil
}

func (r *transactionsRepo) FindByOwner(ctx context.Context, owner common.Address) ([]*entity.Transaction, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Or{sq.Eq{"sender": owner}, sq.Eq{"destination": owner}}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	return r.selectRows(ctx, q, args)
}

func (r *transactionsRepo) FindPending(ctx context.Context, limit uint64) ([]*entity.Transaction, error) {
	q, args, err := buildFindPendingQuery(r.table, limit)
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	return r.selectRows(ctx, q, args)
}

func buildFindPendingQuery(table string, limit uint64) (string, []interface{}, error) {
	return sq.Select("*").
		From(table).
		Where(sq.Eq{"resolved_at": nil}).
		OrderBy("created_at").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *transactionsRepo) selectRows(ctx context.Context, q string, args []interface{}) ([]*entity.Transaction, error) {
	rows := make([]*transactionRow, 0, 10)
	err := r.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select transactions: %w", err)
	}
	res := make([]*entity.Transaction, len(rows))
	for i, row := range rows {
		res[i] = row.toEntity()
	}
	return res, nil
}

// UpdateByKey applies the patch in a single keyed UPDATE, so concurrent patches of
// different records never touch each other.
func (r *transactionsRepo) UpdateByKey(ctx context.Context, txID common.Hash, patch *entity.TransactionPatch) (*entity.Transaction, error) {
	if patch.IsEmpty() {
		return r.GetByTxID(ctx, txID)
	}
	q, args, err := buildUpdateQuery(r.table, txID, patch)
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	row := new(transactionRow)
	err = r.db.GetContext(ctx, row, q, args...)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", txID, err)
		}
		return nil, fmt.Errorf("can't update transaction: %w", err)
	}
	return row.toEntity(), nil
}

func buildUpdateQuery(table string, txID common.Hash, patch *entity.TransactionPatch) (string, []interface{}, error) {
	set := map[string]interface{}{
		"updated_at": sq.Expr("NOW()"),
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.UniqueID != nil {
		set["unique_id"] = *patch.UniqueID
	}
	if patch.BlockNum != nil {
		set["block_num"] = *patch.BlockNum
	}
	if patch.ChildTxID != nil {
		set["child_tx_id"] = *patch.ChildTxID
	}
	if patch.ResolvedAt != nil {
		set["resolved_at"] = *patch.ResolvedAt
	}
	if patch.Cctp != nil {
		set["cctp_source_domain"] = patch.Cctp.SourceDomain
		set["cctp_attestation_hash"] = patch.Cctp.AttestationHash
		set["cctp_message_bytes"] = patch.Cctp.MessageBytes
		set["cctp_attestation"] = patch.Cctp.Attestation
		set["cctp_receive_tx_hash"] = patch.Cctp.ReceiveMessageTransactionHash
		set["cctp_receive_timestamp"] = patch.Cctp.ReceiveMessageTimestamp
	}
	return sq.Update(table).
		SetMap(set).
		Where(sq.Eq{"tx_id": txID}).
		Suffix("RETURNING *").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}
