package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/omni/tokenbridge-transfers/entity"
)

type customChainsRepo struct {
	key    string
	client redis.UniversalClient
}

// NewCustomChainsRepo keeps all custom chains in a single hash keyed by chain id.
func NewCustomChainsRepo(prefix string, client redis.UniversalClient) entity.CustomChainsRepo {
	return &customChainsRepo{
		key:    prefix + ":custom_chains",
		client: client,
	}
}

func (r *customChainsRepo) FindAll(ctx context.Context) ([]*entity.CustomChain, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("can't get custom chains: %w", err)
	}
	res := make([]*entity.CustomChain, 0, len(values))
	for _, v := range values {
		chain := new(entity.CustomChain)
		if err = json.Unmarshal([]byte(v), chain); err != nil {
			return nil, fmt.Errorf("can't decode custom chain: %w", err)
		}
		res = append(res, chain)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ChainID < res[j].ChainID
	})
	return res, nil
}

func (r *customChainsRepo) Ensure(ctx context.Context, chain *entity.CustomChain) error {
	blob, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("can't encode custom chain: %w", err)
	}
	err = r.client.HSetNX(ctx, r.key, strconv.FormatUint(chain.ChainID, 10), blob).Err()
	if err != nil {
		return fmt.Errorf("can't save custom chain: %w", err)
	}
	return nil
}

func (r *customChainsRepo) Delete(ctx context.Context, chainID uint64) error {
	err := r.client.HDel(ctx, r.key, strconv.FormatUint(chainID, 10)).Err()
	if err != nil {
		return fmt.Errorf("can't delete custom chain: %w", err)
	}
	return nil
}
