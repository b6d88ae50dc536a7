package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/db"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/network"
	mw "github.com/omni/tokenbridge-transfers/presenter/http/middleware"
	"github.com/omni/tokenbridge-transfers/presenter/http/render"
)

type TransactionsStore interface {
	GetAll(ctx context.Context, owner common.Address) ([]*entity.Transaction, error)
	Get(ctx context.Context, txID common.Hash) (*entity.Transaction, error)
	Subscribe(owner common.Address) (<-chan *entity.Transaction, func())
}

type ChainRegistry interface {
	Chains() []*config.ChainConfig
	IsCustomChain(id uint64) bool
	DestinationChainIDs(id uint64) ([]uint64, error)
	AddCustomChain(ctx context.Context, cc *entity.CustomChain) error
	RemoveCustomChain(ctx context.Context, chainID uint64) error
}

type Presenter struct {
	logger   logging.Logger
	store    TransactionsStore
	chains   ChainRegistry
	upgrader websocket.Upgrader
	root     chi.Router
}

func NewPresenter(logger logging.Logger, store TransactionsStore, chains ChainRegistry) *Presenter {
	p := &Presenter{
		logger: logger,
		store:  store,
		chains: chains,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		root: chi.NewMux(),
	}
	p.routes()
	return p
}

func (p *Presenter) routes() {
	p.root.Use(middleware.RequestID)
	p.root.Use(mw.NewLoggerMiddleware(p.logger))
	p.root.Use(mw.Recoverer)

	p.root.Group(func(r chi.Router) {
		r.Use(middleware.Throttle(5))
		r.Get("/chains", p.wrapJSONHandler(p.GetChains))
		r.Post("/chains", p.wrapJSONHandler(p.AddCustomChain))
		r.With(mw.GetChainIDMiddleware).Delete("/chains/{chainID:[0-9]+}", p.wrapJSONHandler(p.RemoveCustomChain))
		r.Route("/transactions/{owner:0x[0-9a-fA-F]{40}}", func(r chi.Router) {
			r.Use(mw.GetOwnerMiddleware)
			r.Get("/", p.wrapJSONHandler(p.GetTransactions))
			r.With(mw.GetTxHashMiddleware).Get("/{txHash:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(p.GetTransaction))
		})
	})
	// Streams are long-lived and stay outside of the throttled group.
	p.root.With(mw.GetOwnerMiddleware).Get("/ws/transactions/{owner:0x[0-9a-fA-F]{40}}", p.StreamTransactions)
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.root)
}

func (p *Presenter) Handler() http.Handler {
	return p.root
}

func (p *Presenter) wrapJSONHandler(handler func(r *http.Request) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			render.Error(w, r, err)
			return
		}
		render.JSON(w, r, http.StatusOK, res)
	}
}

func (p *Presenter) GetChains(*http.Request) (interface{}, error) {
	chains := p.chains.Chains()
	res := make([]*ChainInfo, 0, len(chains))
	for _, chain := range chains {
		destinations, err := p.chains.DestinationChainIDs(chain.ChainID)
		if err != nil {
			return nil, err
		}
		res = append(res, p.chainToChainInfo(chain, destinations))
	}
	return res, nil
}

func (p *Presenter) AddCustomChain(r *http.Request) (interface{}, error) {
	cc := new(entity.CustomChain)
	if err := json.NewDecoder(r.Body).Decode(cc); err != nil {
		return nil, fmt.Errorf("can't decode custom chain: %w", render.ErrBadRequest)
	}
	if cc.ChainID == 0 {
		return nil, fmt.Errorf("custom chain has no chain id: %w", render.ErrBadRequest)
	}
	if err := p.chains.AddCustomChain(r.Context(), cc); err != nil {
		return nil, registryError(err)
	}
	return cc, nil
}

func (p *Presenter) RemoveCustomChain(r *http.Request) (interface{}, error) {
	chainID := mw.ChainID(r.Context())
	if err := p.chains.RemoveCustomChain(r.Context(), chainID); err != nil {
		return nil, registryError(err)
	}
	return map[string]uint64{"chainId": chainID}, nil
}

func (p *Presenter) GetTransactions(r *http.Request) (interface{}, error) {
	txs, err := p.store.GetAll(r.Context(), mw.Owner(r.Context()))
	if err != nil {
		return nil, fmt.Errorf("can't get transactions: %w", err)
	}
	res := make([]*TransactionInfo, len(txs))
	for i, tx := range txs {
		res[i] = transactionToInfo(tx)
	}
	return res, nil
}

func (p *Presenter) GetTransaction(r *http.Request) (interface{}, error) {
	ctx := r.Context()
	txHash, _ := mw.TxHash(ctx)
	tx, err := p.store.Get(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("can't get transaction: %w", err)
	}
	// Records of other owners are reported as missing.
	owner := mw.Owner(ctx)
	if !tx.IsOwnedBy(owner) {
		return nil, fmt.Errorf("transaction %s of %s: %w", txHash, owner, db.ErrNotFound)
	}
	return transactionToInfo(tx), nil
}

func registryError(err error) error {
	switch {
	case errors.Is(err, network.ErrInvalidCustomChain):
		return fmt.Errorf("%w: %w", render.ErrBadRequest, err)
	case errors.Is(err, network.ErrUnknownChain):
		return fmt.Errorf("%w: %w", db.ErrNotFound, err)
	default:
		return err
	}
}
