package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownChain     = errors.New("unknown chain")
	ErrDuplicateChainID = errors.New("duplicate chain id")
	ErrInvalidConfig    = errors.New("invalid config")
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type EthBridgeConfig struct {
	Bridge common.Address `yaml:"bridge"`
	Inbox  common.Address `yaml:"inbox"`
	Outbox common.Address `yaml:"outbox"`
}

type TokenBridgeConfig struct {
	ParentGatewayRouter common.Address `yaml:"parent_gateway_router"`
	ChildGatewayRouter  common.Address `yaml:"child_gateway_router"`
}

type TeleporterConfig struct {
	L1Teleporter common.Address `yaml:"l1_teleporter"`
}

type CctpChainConfig struct {
	Domain             uint32         `yaml:"domain"`
	USDC               common.Address `yaml:"usdc"`
	TokenMessenger     common.Address `yaml:"token_messenger"`
	MessageTransmitter common.Address `yaml:"message_transmitter"`
}

type NativeTokenConfig struct {
	Address  common.Address `yaml:"address"`
	Symbol   string         `yaml:"symbol"`
	Decimals uint8          `yaml:"decimals"`
}

type ChainConfig struct {
	Name                         string             `yaml:"-"`
	ChainID                      uint64             `yaml:"chain_id"`
	ParentName                   string             `yaml:"parent"`
	Parent                       *ChainConfig       `yaml:"-"`
	Testnet                      bool               `yaml:"testnet"`
	Nova                         bool               `yaml:"nova"`
	RPC                          *RPCConfig         `yaml:"rpc"`
	BlockTime                    time.Duration      `yaml:"block_time"`
	ConfirmPeriodBlocks          uint64             `yaml:"confirm_period_blocks"`
	RetryableLifetime            time.Duration      `yaml:"retryable_lifetime"`
	NativeToken                  *NativeTokenConfig `yaml:"native_token"`
	EthBridge                    *EthBridgeConfig   `yaml:"eth_bridge"`
	TokenBridge                  *TokenBridgeConfig `yaml:"token_bridge"`
	Teleporter                   *TeleporterConfig  `yaml:"teleporter"`
	CCTP                         *CctpChainConfig   `yaml:"cctp"`
	TokensRequiringChildApproval []common.Address   `yaml:"tokens_requiring_child_approval"`
}

// RequiresChildApproval reports whether the given parent-chain token needs an
// allowance on the child chain before it can be withdrawn.
func (cfg *ChainConfig) RequiresChildApproval(token common.Address) bool {
	for _, t := range cfg.TokensRequiringChildApproval {
		if t == token {
			return true
		}
	}
	return false
}

// CustomFeeToken returns the parent-chain address of the token paying for gas
// on this chain, or nil when the chain uses ETH.
func (cfg *ChainConfig) CustomFeeToken() *common.Address {
	if cfg.NativeToken == nil || cfg.NativeToken.Address == (common.Address{}) {
		return nil
	}
	addr := cfg.NativeToken.Address
	return &addr
}

type CctpConfig struct {
	AttestationAPI string        `yaml:"attestation_api"`
	Testnet        bool          `yaml:"testnet"`
	Timeout        time.Duration `yaml:"timeout"`
	RPS            float64       `yaml:"rps"`
}

type RetryableConfig struct {
	GasLimit                     uint64 `yaml:"gas_limit"`
	GasPricePercentIncrease      int64  `yaml:"gas_price_percent_increase"`
	SubmissionFeePercentIncrease int64  `yaml:"submission_fee_percent_increase"`
}

type WatcherConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type OrchestratorConfig struct {
	SwitchTimeout      time.Duration `yaml:"switch_timeout"`
	SwitchPollInterval time.Duration `yaml:"switch_poll_interval"`
	ReceiptTimeout     time.Duration `yaml:"receipt_timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StoreBackend string

const (
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendMemory   StoreBackend = "memory"
)

type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`
	Redis   *RedisConfig `yaml:"redis"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

// AlertConfig tunes a single alert job. Records pending for less than StuckAfter are not reported.
type AlertConfig struct {
	StuckAfter time.Duration `yaml:"stuck_after"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Chains       map[string]*ChainConfig `yaml:"chains"`
	CCTP         *CctpConfig             `yaml:"cctp"`
	Retryable    *RetryableConfig        `yaml:"retryable"`
	Watcher      *WatcherConfig          `yaml:"watcher"`
	Orchestrator *OrchestratorConfig     `yaml:"orchestrator"`
	Store        *StoreConfig            `yaml:"store"`
	DBConfig     *DBConfig               `yaml:"postgres"`
	LogLevel     logrus.Level            `yaml:"log_level"`
	Presenter    *PresenterConfig        `yaml:"presenter"`
	Alerts       map[string]*AlertConfig `yaml:"alerts"`
}

// ChainByID looks up a configured chain by its numeric id.
func (cfg *Config) ChainByID(id uint64) (*ChainConfig, bool) {
	for _, chain := range cfg.Chains {
		if chain.ChainID == id {
			return chain, true
		}
	}
	return nil, false
}

// SortedChains returns configured chains ordered by chain id.
func (cfg *Config) SortedChains() []*ChainConfig {
	chains := make([]*ChainConfig, 0, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool {
		return chains[i].ChainID < chains[j].ChainID
	})
	return chains
}

func (cfg *Config) init() error {
	seen := make(map[uint64]string, len(cfg.Chains))
	for name, chain := range cfg.Chains {
		if chain == nil {
			return fmt.Errorf("chain %s has empty config: %w", name, ErrInvalidConfig)
		}
		chain.Name = name
		if chain.ChainID == 0 {
			return fmt.Errorf("chain %s has no chain_id: %w", name, ErrInvalidConfig)
		}
		if other, ok := seen[chain.ChainID]; ok {
			return fmt.Errorf("chains %s and %s share id %d: %w", other, name, chain.ChainID, ErrDuplicateChainID)
		}
		seen[chain.ChainID] = name
	}
	for name, chain := range cfg.Chains {
		if chain.ParentName == "" {
			continue
		}
		parent, ok := cfg.Chains[chain.ParentName]
		if !ok {
			return fmt.Errorf("parent %s of chain %s: %w", chain.ParentName, name, ErrUnknownChain)
		}
		if chain.EthBridge == nil {
			return fmt.Errorf("child chain %s has no eth_bridge config: %w", name, ErrInvalidConfig)
		}
		chain.Parent = parent
	}
	if cfg.Retryable == nil {
		cfg.Retryable = &RetryableConfig{}
	}
	if cfg.Retryable.GasLimit == 0 {
		cfg.Retryable.GasLimit = 300_000
	}
	if cfg.Retryable.GasPricePercentIncrease == 0 {
		cfg.Retryable.GasPricePercentIncrease = 200
	}
	if cfg.Retryable.SubmissionFeePercentIncrease == 0 {
		cfg.Retryable.SubmissionFeePercentIncrease = 300
	}
	if cfg.Watcher == nil {
		cfg.Watcher = &WatcherConfig{}
	}
	if cfg.Watcher.Interval == 0 {
		cfg.Watcher.Interval = 30 * time.Second
	}
	if cfg.Watcher.Timeout == 0 {
		cfg.Watcher.Timeout = 2 * time.Minute
	}
	if cfg.Orchestrator == nil {
		cfg.Orchestrator = &OrchestratorConfig{}
	}
	if cfg.Orchestrator.SwitchTimeout == 0 {
		cfg.Orchestrator.SwitchTimeout = 3 * time.Second
	}
	if cfg.Orchestrator.SwitchPollInterval == 0 {
		cfg.Orchestrator.SwitchPollInterval = 100 * time.Millisecond
	}
	if cfg.Orchestrator.ReceiptTimeout == 0 {
		cfg.Orchestrator.ReceiptTimeout = 10 * time.Minute
	}
	if cfg.Store == nil {
		cfg.Store = &StoreConfig{Backend: StoreBackendPostgres}
	}
	switch cfg.Store.Backend {
	case StoreBackendPostgres:
		if cfg.DBConfig == nil {
			return fmt.Errorf("postgres store requires postgres config: %w", ErrInvalidConfig)
		}
	case StoreBackendRedis:
		if cfg.Store.Redis == nil {
			return fmt.Errorf("redis store requires redis config: %w", ErrInvalidConfig)
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q: %w", cfg.Store.Backend, ErrInvalidConfig)
	}
	return nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	if err := cfg.init(); err != nil {
		return nil, fmt.Errorf("can't initialize config: %w", err)
	}
	return cfg, nil
}
