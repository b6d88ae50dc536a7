package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/utils"
)

const defaultReceiptPollInterval = 2 * time.Second

// KeyWallet signs with a single private key on any chain its pool can reach.
type KeyWallet struct {
	logger       logging.Logger
	key          *ecdsa.PrivateKey
	address      common.Address
	pool         *ethclient.Pool
	pollInterval time.Duration

	mu          sync.Mutex
	chainID     uint64
	subscribers map[int]chan uint64
	nextSub     int
}

func NewKeyWallet(logger logging.Logger, hexKey string, pool *ethclient.Pool, chainID uint64) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("can't parse private key: %w", err)
	}
	if _, err = pool.Get(chainID); err != nil {
		return nil, err
	}
	address := crypto.PubkeyToAddress(key.PublicKey)
	return &KeyWallet{
		logger:       logger.WithField("wallet", address.Hex()),
		key:          key,
		address:      address,
		pool:         pool,
		pollInterval: defaultReceiptPollInterval,
		chainID:      chainID,
		subscribers:  make(map[int]chan uint64),
	}, nil
}

func (w *KeyWallet) Address() common.Address {
	return w.address
}

func (w *KeyWallet) ChainID(_ context.Context) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID, nil
}

func (w *KeyWallet) SwitchChain(_ context.Context, chainID uint64) error {
	if _, err := w.pool.Get(chainID); err != nil {
		return fmt.Errorf("chain %d: %w: %v", chainID, ErrUnknownChain, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.chainID == chainID {
		return nil
	}
	w.logger.WithFields(logrus.Fields{
		"from_chain_id": w.chainID,
		"to_chain_id":   chainID,
	}).Info("switching active chain")
	w.chainID = chainID
	for _, sub := range w.subscribers {
		select {
		case sub <- chainID:
		default:
		}
	}
	return nil
}

func (w *KeyWallet) ChainChanged() (<-chan uint64, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextSub
	w.nextSub++
	ch := make(chan uint64, 1)
	w.subscribers[id] = ch
	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subscribers, id)
	}
}

func (w *KeyWallet) Signer(ctx context.Context) (Signer, error) {
	chainID, err := w.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	client, err := w.pool.Get(chainID)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(w.logger, w.key, client, w.pollInterval), nil
}

type KeySigner struct {
	logger       logging.Logger
	key          *ecdsa.PrivateKey
	address      common.Address
	client       ethclient.Client
	pollInterval time.Duration
}

func NewKeySigner(logger logging.Logger, key *ecdsa.PrivateKey, client ethclient.Client, pollInterval time.Duration) *KeySigner {
	return &KeySigner{
		logger:       logger.WithField("chain_id", client.ChainID()),
		key:          key,
		address:      crypto.PubkeyToAddress(key.PublicKey),
		client:       client,
		pollInterval: pollInterval,
	}
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

func (s *KeySigner) ChainID() uint64 {
	return s.client.ChainID()
}

func (s *KeySigner) SendTransaction(ctx context.Context, req *TxRequest) (*types.Transaction, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, fmt.Errorf("can't get nonce: %w", err)
	}
	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't suggest gas tip: %w", err)
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("can't get latest header: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(baseFee, big.NewInt(2)))
	gas := req.Gas
	if gas == 0 {
		gas, err = s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  s.address,
			To:    req.To,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return nil, fmt.Errorf("can't estimate gas: %w", err)
		}
	}
	chainID := new(big.Int).SetUint64(s.client.ChainID())
	tx, err := types.SignNewTx(s.key, types.LatestSignerForChainID(chainID), &types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        req.To,
		Value:     value,
		Data:      req.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("can't sign transaction: %w", err)
	}
	if err = s.client.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("can't send transaction: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"tx_hash": tx.Hash(),
		"nonce":   nonce,
		"gas":     gas,
	}).Info("sent transaction")
	return tx, nil
}

// WaitMined polls for the receipt until it is available or the context is done.
func (s *KeySigner) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return WaitMined(ctx, s.client, tx.Hash(), s.pollInterval)
}

func WaitMined(ctx context.Context, client ethclient.Client, txHash common.Hash, pollInterval time.Duration) (*types.Receipt, error) {
	for {
		receipt, err := client.TransactionReceiptByHash(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("can't get receipt for %s: %w", txHash, err)
		}
		if utils.ContextSleep(ctx, pollInterval) == nil {
			return nil, fmt.Errorf("%s: %w: %v", txHash, ErrReceiptTimeout, ctx.Err())
		}
	}
}
