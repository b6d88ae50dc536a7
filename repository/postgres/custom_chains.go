package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
)

type customChainsRepo basePostgresRepo

func NewCustomChainsRepo(table string, db *db.DB) entity.CustomChainsRepo {
	return (*customChainsRepo)(newBasePostgresRepo(table, db))
}

func (r *customChainsRepo) FindAll(ctx context.Context) ([]*entity.CustomChain, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("chain_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	chains := make([]*entity.CustomChain, 0, 4)
	err = r.db.SelectContext(ctx, &chains, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select custom chains: %w", err)
	}
	return chains, nil
}

func (r *customChainsRepo) Ensure(ctx context.Context, chain *entity.CustomChain) error {
	q, args, err := sq.Insert(r.table).
		Columns("chain_id", "parent_chain_id", "name", "rpc_url", "explorer_url", "native_token",
			"bridge", "inbox", "outbox", "parent_gateway_router", "child_gateway_router", "confirm_period_blocks").
		Values(chain.ChainID, chain.ParentChainID, chain.Name, chain.RPCURL, chain.ExplorerURL, chain.NativeToken,
			chain.Bridge, chain.Inbox, chain.Outbox, chain.ParentGatewayRouter, chain.ChildGatewayRouter, chain.ConfirmPeriodBlocks).
		Suffix("ON CONFLICT (chain_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert custom chain: %w", err)
	}
	return nil
}

func (r *customChainsRepo) Delete(ctx context.Context, chainID uint64) error {
	q, args, err := sq.Delete(r.table).
		Where(sq.Eq{"chain_id": chainID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't delete custom chain: %w", err)
	}
	return nil
}
