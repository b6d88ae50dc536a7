package tracker

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/ethclient"
)

// maxBlockRangeSize is the widest eth_getLogs range most public endpoints accept.
const maxBlockRangeSize = 10_000

type blocksRange struct {
	From uint64
	To   uint64
}

func splitRange(from, to, size uint64) []blocksRange {
	var res []blocksRange
	for from <= to {
		end := from + size - 1
		if end > to || end < from {
			end = to
		}
		res = append(res, blocksRange{From: from, To: end})
		if end == to {
			break
		}
		from = end + 1
	}
	return res
}

// scanLogs runs the query over [from, to] in ranges of at most maxBlockRangeSize
// blocks and returns the logs ordered by position in the chain.
func scanLogs(ctx context.Context, client ethclient.Client, q ethereum.FilterQuery, from, to uint64) ([]types.Log, error) {
	var logs []types.Log
	for _, r := range splitRange(from, to, maxBlockRangeSize) {
		qc := q
		qc.FromBlock = new(big.Int).SetUint64(r.From)
		qc.ToBlock = new(big.Int).SetUint64(r.To)
		batch, err := client.FilterLogs(ctx, qc)
		if err != nil {
			return nil, err
		}
		logs = append(logs, batch...)
	}
	sort.Slice(logs, func(i, j int) bool {
		a, b := logs[i], logs[j]
		return a.BlockNumber < b.BlockNumber || (a.BlockNumber == b.BlockNumber && a.Index < b.Index)
	})
	return logs, nil
}
