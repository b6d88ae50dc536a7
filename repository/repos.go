package repository

import (
	"github.com/redis/go-redis/v9"

	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/repository/memory"
	"github.com/omni/tokenbridge-transfers/repository/postgres"
	redisrepo "github.com/omni/tokenbridge-transfers/repository/redis"
)

const redisKeyPrefix = "transfers"

type Repo struct {
	Transactions entity.TransactionsRepo
	CustomChains entity.CustomChainsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Transactions: postgres.NewTransactionsRepo("transactions", db),
		CustomChains: postgres.NewCustomChainsRepo("custom_chains", db),
	}
}

func NewRedisRepo(client redis.UniversalClient) *Repo {
	return &Repo{
		Transactions: redisrepo.NewTransactionsRepo(redisKeyPrefix, client),
		CustomChains: redisrepo.NewCustomChainsRepo(redisKeyPrefix, client),
	}
}

func NewMemoryRepo() *Repo {
	return &Repo{
		Transactions: memory.NewTransactionsRepo(),
		CustomChains: memory.NewCustomChainsRepo(),
	}
}
