package config_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/config"
)

const testCfg = `
chains:
  mainnet:
    chain_id: 1
    rpc:
      host: https://mainnet.infura.io/v3/${INFURA_PROJECT_KEY}
      timeout: 30s
    block_time: 12s
    cctp:
      domain: 0
      usdc: 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
      token_messenger: 0xBd3fa81B58Ba92a82136038B25aDec7066af3155
      message_transmitter: 0x0a992d191DEeC32aFe36203Ad87D7d289a738F81
  arbitrum-one:
    chain_id: 42161
    parent: mainnet
    rpc:
      host: https://arb1.arbitrum.io/rpc
      timeout: 20s
    block_time: 250ms
    confirm_period_blocks: 45818
    retryable_lifetime: 168h
    eth_bridge:
      bridge: 0x8315177aB297bA92A06054cE80a67Ed4DBd7ed3a
      inbox: 0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f
      outbox: 0x0B9857ae2D4A3DBe74ffE1d7DF045bb7F96E4840
    token_bridge:
      parent_gateway_router: 0x72Ce9c846789fdB6fC1f34aC4AD25Dd9ef7031ef
      child_gateway_router: 0x5288c571Fd7aD117beA99bF60FE0846C4E84F933
    cctp:
      domain: 3
      usdc: 0xaf88d065e77c8cC2239327C5EDb3A432268e5831
      token_messenger: 0x19330d10D9Cc8751218eaf51E8885D058642E08A
      message_transmitter: 0xC30362313FBBA5cf9163F0bb16a0e01f01A896ca
    tokens_requiring_child_approval:
      - 0x0000000000000000000000000000000000000007
log_level: debug
store:
  backend: memory
presenter:
  host: 0.0.0.0:3333
`

//nolint:paralleltest
func TestReadConfigWithEnv(t *testing.T) {
	t.Setenv("INFURA_PROJECT_KEY", "12345678")
	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)

	mainnet := cfg.Chains["mainnet"]
	require.Equal(t, "mainnet", mainnet.Name)
	require.Equal(t, uint64(1), mainnet.ChainID)
	require.Equal(t, &config.RPCConfig{
		Host:    "https://mainnet.infura.io/v3/12345678",
		Timeout: 30 * time.Second,
	}, mainnet.RPC)
	require.Nil(t, mainnet.Parent)

	arb := cfg.Chains["arbitrum-one"]
	require.Same(t, mainnet, arb.Parent)
	require.Equal(t, 250*time.Millisecond, arb.BlockTime)
	require.Equal(t, uint64(45818), arb.ConfirmPeriodBlocks)
	require.Equal(t, 168*time.Hour, arb.RetryableLifetime)
	require.Equal(t, common.HexToAddress("0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f"), arb.EthBridge.Inbox)
	require.Equal(t, uint32(3), arb.CCTP.Domain)
	require.True(t, arb.RequiresChildApproval(common.HexToAddress("0x07")))
	require.False(t, arb.RequiresChildApproval(common.HexToAddress("0x08")))
	require.Nil(t, arb.CustomFeeToken())

	require.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	require.Equal(t, config.StoreBackendMemory, cfg.Store.Backend)
	require.Equal(t, "0.0.0.0:3333", cfg.Presenter.Host)
}

func TestReadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.ReadConfig([]byte(testCfg))
	require.NoError(t, err)
	require.Equal(t, uint64(300_000), cfg.Retryable.GasLimit)
	require.Equal(t, 30*time.Second, cfg.Watcher.Interval)
	require.Equal(t, 100*time.Millisecond, cfg.Orchestrator.SwitchPollInterval)
	require.Equal(t, 3*time.Second, cfg.Orchestrator.SwitchTimeout)

	chains := cfg.SortedChains()
	require.Len(t, chains, 2)
	require.Equal(t, uint64(1), chains[0].ChainID)
	require.Equal(t, uint64(42161), chains[1].ChainID)

	chain, ok := cfg.ChainByID(42161)
	require.True(t, ok)
	require.Equal(t, "arbitrum-one", chain.Name)
	_, ok = cfg.ChainByID(10)
	require.False(t, ok)
}

func TestReadConfig_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown parent", func(t *testing.T) {
		t.Parallel()
		_, err := config.ReadConfig([]byte(`
chains:
  orbit:
    chain_id: 5
    parent: missing
    eth_bridge:
      inbox: 0x0000000000000000000000000000000000000001
store:
  backend: memory
`))
		require.ErrorIs(t, err, config.ErrUnknownChain)
	})

	t.Run("duplicate chain id", func(t *testing.T) {
		t.Parallel()
		_, err := config.ReadConfig([]byte(`
chains:
  a:
    chain_id: 5
  b:
    chain_id: 5
store:
  backend: memory
`))
		require.ErrorIs(t, err, config.ErrDuplicateChainID)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := config.ReadConfig([]byte(`
chains:
  a:
    chain_id: 5
    unknown_field: 1
`))
		require.Error(t, err)
	})

	t.Run("postgres backend without postgres config", func(t *testing.T) {
		t.Parallel()
		_, err := config.ReadConfig([]byte(`
chains:
  a:
    chain_id: 5
`))
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}
