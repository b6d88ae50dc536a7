package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/omni/tokenbridge-transfers/presenter/http/render"
)

type ctxKey int

const (
	ownerCtxKey ctxKey = iota
	txHashCtxKey
	chainIDCtxKey
)

var ErrInvalidParameter = fmt.Errorf("invalid request parameter: %w", render.ErrBadRequest)

func GetOwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		if !common.IsHexAddress(owner) {
			render.Error(w, r, fmt.Errorf("owner %q is not an address: %w", owner, ErrInvalidParameter))
			return
		}

		ctx := context.WithValue(r.Context(), ownerCtxKey, common.HexToAddress(owner))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Owner(ctx context.Context) common.Address {
	owner, _ := ctx.Value(ownerCtxKey).(common.Address)
	return owner
}

func GetTxHashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txHash := chi.URLParam(r, "txHash")

		if txHash == "" {
			txHash = r.URL.Query().Get("txHash")
			if txHash == "" {
				next.ServeHTTP(w, r)
				return
			}
		}

		ctx := context.WithValue(r.Context(), txHashCtxKey, common.HexToHash(txHash))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TxHash(ctx context.Context) (common.Hash, bool) {
	txHash, ok := ctx.Value(txHashCtxKey).(common.Hash)
	return txHash, ok
}

func GetChainIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chainID, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
		if err != nil {
			render.Error(w, r, fmt.Errorf("failed to parse chainID: %w", ErrInvalidParameter))
			return
		}

		ctx := context.WithValue(r.Context(), chainIDCtxKey, chainID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ChainID(ctx context.Context) uint64 {
	chainID, _ := ctx.Value(chainIDCtxKey).(uint64)
	return chainID
}
