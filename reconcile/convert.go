package reconcile

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/units"
)

var ErrInvalidResult = errors.New("invalid transfer result")

type ConvertParams struct {
	Result *bridge.TransferResult
	Intent *bridge.Intent
	// ParentChainID and ChildChainID are the settlement pair of the transfer,
	// for teleports the base chain and the orbit chain.
	ParentChainID uint64
	ChildChainID  uint64
	IsTeleport    bool
	// NativeCurrency is the symbol recorded for native transfers without one.
	NativeCurrency   string
	CctpSourceDomain uint32
	Now              time.Time
}

// Convert builds the record persisted right after a transfer was submitted.
func Convert(p ConvertParams) (*entity.Transaction, error) {
	if p.Result == nil || p.Result.SourceTx == nil {
		return nil, fmt.Errorf("no source transaction: %w", ErrInvalidResult)
	}
	if p.Intent == nil || p.Intent.Asset == nil || p.Intent.Amount == nil {
		return nil, fmt.Errorf("incomplete intent: %w", ErrInvalidResult)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	sender := p.Intent.Sender
	if sender == (common.Address{}) {
		from, err := types.Sender(types.LatestSignerForChainID(p.Result.SourceTx.ChainId()), p.Result.SourceTx)
		if err != nil {
			return nil, fmt.Errorf("can't recover sender: %w", err)
		}
		sender = from
	}
	destination := sender
	if p.Intent.Destination != nil {
		destination = *p.Intent.Destination
	}

	asset := p.Intent.Asset
	res := &entity.Transaction{
		TxID:               p.Result.SourceTx.Hash(),
		Type:               p.Result.Type,
		Asset:              asset.Symbol,
		AssetType:          entity.AssetTypeNative,
		Value:              units.FormatUnits(p.Intent.Amount, asset.Decimals),
		Sender:             sender,
		Destination:        destination,
		ParentChainID:      p.ParentChainID,
		ChildChainID:       p.ChildChainID,
		SourceChainID:      p.Intent.SourceChainID,
		DestinationChainID: p.Intent.DestinationChainID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if asset.IsNative() {
		if res.Asset == "" {
			res.Asset = p.NativeCurrency
		}
	} else {
		addr := asset.Address
		res.AssetType = entity.AssetTypeToken
		res.TokenAddress = &addr
	}

	isDeposit := p.Result.Type.IsDeposit() || p.IsTeleport
	switch {
	case p.Result.Type == entity.TransferTypeCctp:
		res.Direction = entity.DirectionWithdraw
		if p.Intent.SourceChainID == p.ParentChainID {
			res.Direction = entity.DirectionDeposit
		}
		res.Status = entity.StatusCctpDefault
		res.Cctp = &entity.CctpData{SourceDomain: p.CctpSourceDomain}
	case isDeposit:
		res.Direction = entity.DirectionDepositL1
		res.Status = entity.StatusL1Pending
	default:
		res.Direction = entity.DirectionWithdraw
		res.Status = entity.StatusUnconfirmed
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Amount parses the record value back into the smallest unit of an asset with the given decimals.
func Amount(tx *entity.Transaction, decimals uint8) (*big.Int, error) {
	return units.ParseUnits(tx.Value, decimals)
}
