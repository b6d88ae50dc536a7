package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/cctp"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/network"
	"github.com/omni/tokenbridge-transfers/pending"
	"github.com/omni/tokenbridge-transfers/repository"
	"github.com/omni/tokenbridge-transfers/tracker"
)

// App holds the components shared by every binary.
type App struct {
	Repo         *repository.Repo
	Registry     *network.Registry
	Clients      *ethclient.Pool
	Attestations *cctp.Client
	Store        *pending.Store
	Tracker      *tracker.Tracker
	BurnLimit    bridge.BurnLimitFunc

	closers []func() error
}

// New connects the configured store backend, loads custom chains and prepares
// lazily dialed rpc clients for every known chain.
func New(ctx context.Context, logger logging.Logger, cfg *config.Config) (*App, error) {
	a := new(App)
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
		if err != nil {
			return nil, fmt.Errorf("can't connect to database and apply migrations: %w", err)
		}
		a.closers = append(a.closers, dbConn.Close)
		a.Repo = repository.NewRepo(dbConn)
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("can't connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Repo = repository.NewRedisRepo(client)
	default:
		a.Repo = repository.NewMemoryRepo()
	}

	a.Registry = network.NewRegistry(logger.WithField("service", "registry"), cfg.Chains, a.Repo.CustomChains)
	if err := a.Registry.LoadCustomChains(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = ethclient.NewPool(func(chainID uint64) (ethclient.Client, error) {
		chain, err := a.Registry.Chain(chainID)
		if err != nil {
			return nil, err
		}
		if chain.RPC == nil {
			return nil, fmt.Errorf("chain %d has no rpc config: %w", chainID, ethclient.ErrUnknownChain)
		}
		return ethclient.NewClient(chain.RPC.Host, chain.RPC.Timeout, chainID)
	})
	a.Attestations = cctp.NewClient(logger, cfg.CCTP, cfg.CCTP != nil && cfg.CCTP.Testnet)
	a.Store = pending.NewStore(logger.WithField("service", "store"), a.Repo.Transactions)
	a.Tracker = tracker.New(logger.WithField("service", "tracker"), a.Registry, a.Clients, a.Attestations)
	a.BurnLimit = bridge.NewBurnLimitLookup(a.Registry, a.Clients)
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
