package presenter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/network"
	"github.com/omni/tokenbridge-transfers/pending"
	"github.com/omni/tokenbridge-transfers/presenter"
	"github.com/omni/tokenbridge-transfers/repository/memory"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type env struct {
	store  *pending.Store
	server *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mainnet := &config.ChainConfig{Name: "mainnet", ChainID: 1, RPC: &config.RPCConfig{Host: "http://mainnet"}}
	arb := &config.ChainConfig{
		Name:       "arbitrum-one",
		ChainID:    42161,
		ParentName: "mainnet",
		Parent:     mainnet,
		RPC:        &config.RPCConfig{Host: "http://arb"},
		EthBridge:  &config.EthBridgeConfig{},
		CCTP:       &config.CctpChainConfig{Domain: 3},
	}
	registry := network.NewRegistry(logging.Nop(), map[string]*config.ChainConfig{"mainnet": mainnet, "arbitrum-one": arb}, memory.NewCustomChainsRepo())
	store := pending.NewStore(logging.Nop(), memory.NewTransactionsRepo())
	server := httptest.NewServer(presenter.NewPresenter(logging.Nop(), store, registry).Handler())
	t.Cleanup(server.Close)
	return &env{store: store, server: server}
}

func deposit(txID string, sender common.Address) *entity.Transaction {
	return &entity.Transaction{
		TxID:               common.HexToHash(txID),
		Direction:          entity.DirectionDepositL1,
		Type:               entity.TransferTypeEthDeposit,
		Status:             entity.StatusL1Pending,
		Asset:              "ETH",
		AssetType:          entity.AssetTypeNative,
		Value:              "1.0",
		Sender:             sender,
		Destination:        sender,
		ParentChainID:      1,
		ChildChainID:       42161,
		SourceChainID:      1,
		DestinationChainID: 42161,
	}
}

func getJSON(t *testing.T, url string, status int, res interface{}) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, status, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if res != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(res))
	}
}

func TestPresenter_GetTransactions(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.Upsert(ctx, deposit("0x01", alice)))
	require.NoError(t, e.store.Upsert(ctx, deposit("0x02", bob)))

	var res []*presenter.TransactionInfo
	getJSON(t, e.server.URL+"/transactions/"+alice.Hex(), http.StatusOK, &res)
	require.Len(t, res, 1)
	require.Equal(t, common.HexToHash("0x01"), res[0].TxID)
	require.True(t, res[0].Pending)
	require.Equal(t, "https://etherscan.io/tx/"+common.HexToHash("0x01").Hex(), res[0].SourceLink)

	getJSON(t, e.server.URL+"/transactions/"+common.HexToAddress("0x01").Hex(), http.StatusOK, &res)
	require.Empty(t, res)
}

func TestPresenter_GetTransaction(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	require.NoError(t, e.store.Upsert(context.Background(), deposit("0x01", alice)))
	txID := common.HexToHash("0x01").Hex()

	var res presenter.TransactionInfo
	getJSON(t, e.server.URL+"/transactions/"+alice.Hex()+"/"+txID, http.StatusOK, &res)
	require.Equal(t, entity.StatusL1Pending, res.Status)
	require.Equal(t, "1.0", res.Value)

	getJSON(t, e.server.URL+"/transactions/"+bob.Hex()+"/"+txID, http.StatusNotFound, nil)
	getJSON(t, e.server.URL+"/transactions/"+alice.Hex()+"/"+common.HexToHash("0x02").Hex(), http.StatusNotFound, nil)
}

func TestPresenter_InvalidOwner(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	resp, err := http.Get(e.server.URL + "/transactions/0x1234")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPresenter_Chains(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	var res []*presenter.ChainInfo
	getJSON(t, e.server.URL+"/chains", http.StatusOK, &res)
	require.Len(t, res, 2)
	require.Equal(t, uint64(1), res[0].ChainID)
	require.Nil(t, res[0].ParentChainID)
	require.Equal(t, []uint64{42161}, res[0].DestinationChainIDs)
	require.Equal(t, "ETH", res[0].NativeCurrency)
	require.Equal(t, uint64(42161), res[1].ChainID)
	require.Equal(t, uint64(1), *res[1].ParentChainID)
	require.True(t, res[1].Cctp)
	require.False(t, res[1].Custom)
}

func TestPresenter_CustomChains(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cc := &entity.CustomChain{ChainID: 660279, ParentChainID: 42161, Name: "xai", RPCURL: "http://xai", ConfirmPeriodBlocks: 10}
	blob, err := json.Marshal(cc)
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+"/chains", "application/json", bytes.NewReader(blob))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res []*presenter.ChainInfo
	getJSON(t, e.server.URL+"/chains", http.StatusOK, &res)
	require.Len(t, res, 3)
	require.Equal(t, uint64(660279), res[2].ChainID)
	require.True(t, res[2].Custom)

	cc.ChainID, cc.ParentChainID = 660280, 1
	blob, err = json.Marshal(cc)
	require.NoError(t, err)
	resp, err = http.Post(e.server.URL+"/chains", "application/json", bytes.NewReader(blob))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(e.server.URL+"/chains", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	del := func(id string) int {
		req, err := http.NewRequest(http.MethodDelete, e.server.URL+"/chains/"+id, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		return resp.StatusCode
	}
	require.Equal(t, http.StatusOK, del("660279"))
	require.Equal(t, http.StatusNotFound, del("660279"))
	require.Equal(t, http.StatusNotFound, del("1"))
}

func TestPresenter_Stream(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.Upsert(ctx, deposit("0x01", alice)))

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/transactions/" + alice.Hex()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg presenter.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, presenter.StreamEventSnapshot, msg.Event)
	require.Len(t, msg.Snapshot, 1)

	require.NoError(t, e.store.Upsert(ctx, deposit("0x02", bob)))
	status := entity.StatusL1Confirmed
	_, err = e.store.UpdateByKey(ctx, common.HexToHash("0x01"), &entity.TransactionPatch{Status: &status})
	require.NoError(t, err)

	msg = presenter.StreamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, presenter.StreamEventUpdate, msg.Event)
	require.Equal(t, common.HexToHash("0x01"), msg.Transaction.TxID)
	require.Equal(t, entity.StatusL1Confirmed, msg.Transaction.Status)
}
