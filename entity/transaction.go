package entity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidTransaction = errors.New("invalid transaction record")

type Direction string

const (
	DirectionDeposit   Direction = "deposit"
	DirectionDepositL1 Direction = "deposit-l1"
	DirectionWithdraw  Direction = "withdraw"
)

type AssetType string

const (
	AssetTypeNative AssetType = "native"
	AssetTypeToken  AssetType = "token"
)

type TransferType string

const (
	TransferTypeEthDeposit      TransferType = "eth_deposit"
	TransferTypeErc20Deposit    TransferType = "erc20_deposit"
	TransferTypeEthWithdrawal   TransferType = "eth_withdrawal"
	TransferTypeErc20Withdrawal TransferType = "erc20_withdrawal"
	TransferTypeCctp            TransferType = "cctp"
	TransferTypeEthTeleport     TransferType = "eth_teleport"
	TransferTypeErc20Teleport   TransferType = "erc20_teleport"
)

func (t TransferType) IsDeposit() bool {
	return t == TransferTypeEthDeposit || t == TransferTypeErc20Deposit
}

func (t TransferType) IsTeleport() bool {
	return t == TransferTypeEthTeleport || t == TransferTypeErc20Teleport
}

type CctpData struct {
	SourceDomain                  uint32       `json:"sourceDomain"`
	AttestationHash               *common.Hash `json:"attestationHash"`
	MessageBytes                  []byte       `json:"messageBytes"`
	Attestation                   []byte       `json:"attestation"`
	ReceiveMessageTransactionHash *common.Hash `json:"receiveMessageTransactionHash"`
	ReceiveMessageTimestamp       *time.Time   `json:"receiveMessageTimestamp"`
}

func (d *CctpData) clone() *CctpData {
	if d == nil {
		return nil
	}
	res := *d
	res.AttestationHash = cloneHash(d.AttestationHash)
	res.ReceiveMessageTransactionHash = cloneHash(d.ReceiveMessageTransactionHash)
	res.ReceiveMessageTimestamp = cloneTime(d.ReceiveMessageTimestamp)
	res.MessageBytes = bytes.Clone(d.MessageBytes)
	res.Attestation = bytes.Clone(d.Attestation)
	return &res
}

// Transaction is the merged record of a single submitted transfer, keyed by
// the hash of the source-chain transaction.
type Transaction struct {
	TxID               common.Hash     `json:"txId"`
	UniqueID           *common.Hash    `json:"uniqueId"`
	Direction          Direction       `json:"direction"`
	Type               TransferType    `json:"type"`
	Status             TransferStatus  `json:"status"`
	Asset              string          `json:"asset"`
	AssetType          AssetType       `json:"assetType"`
	TokenAddress       *common.Address `json:"tokenAddress"`
	Value              string          `json:"value"`
	Sender             common.Address  `json:"sender"`
	Destination        common.Address  `json:"destination"`
	ParentChainID      uint64          `json:"parentChainId"`
	ChildChainID       uint64          `json:"childChainId"`
	SourceChainID      uint64          `json:"sourceChainId"`
	DestinationChainID uint64          `json:"destinationChainId"`
	BlockNum           *uint64         `json:"blockNum"`
	ChildTxID          *common.Hash    `json:"childTxId"`
	Cctp               *CctpData       `json:"cctpData,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	ResolvedAt         *time.Time      `json:"resolvedAt"`
}

func (t *Transaction) IsWithdrawal() bool {
	return t.Direction == DirectionWithdraw
}

// IsOwnedBy reports whether the owner is either side of the transfer.
func (t *Transaction) IsOwnedBy(owner common.Address) bool {
	return t.Sender == owner || t.Destination == owner
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	res := *t
	res.UniqueID = cloneHash(t.UniqueID)
	res.ChildTxID = cloneHash(t.ChildTxID)
	res.ResolvedAt = cloneTime(t.ResolvedAt)
	res.Cctp = t.Cctp.clone()
	if t.TokenAddress != nil {
		addr := *t.TokenAddress
		res.TokenAddress = &addr
	}
	if t.BlockNum != nil {
		n := *t.BlockNum
		res.BlockNum = &n
	}
	return &res
}

func (t *Transaction) Validate() error {
	switch t.Direction {
	case DirectionDeposit, DirectionDepositL1, DirectionWithdraw:
	default:
		return fmt.Errorf("unknown direction %q: %w", t.Direction, ErrInvalidTransaction)
	}
	if t.TxID == (common.Hash{}) {
		return fmt.Errorf("empty tx id: %w", ErrInvalidTransaction)
	}
	if t.Status.IsTerminal() != (t.ResolvedAt != nil) {
		return fmt.Errorf("status %s does not match resolved_at: %w", t.Status, ErrInvalidTransaction)
	}
	if t.Status.IsCctp() && t.Cctp == nil {
		return fmt.Errorf("cctp status %s without cctp data: %w", t.Status, ErrInvalidTransaction)
	}
	return nil
}

// Apply mutates the record with every non-nil field of the patch.
func (t *Transaction) Apply(patch *TransactionPatch) {
	if patch == nil {
		return
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.UniqueID != nil {
		t.UniqueID = cloneHash(patch.UniqueID)
	}
	if patch.BlockNum != nil {
		n := *patch.BlockNum
		t.BlockNum = &n
	}
	if patch.ChildTxID != nil {
		t.ChildTxID = cloneHash(patch.ChildTxID)
	}
	if patch.Cctp != nil {
		t.Cctp = patch.Cctp.clone()
	}
	if patch.ResolvedAt != nil {
		t.ResolvedAt = cloneTime(patch.ResolvedAt)
	}
}

// Coalesce fills every optional field left empty in t from prev. Repos use it
// to make an upsert of a stale record never erase gathered information.
func (t *Transaction) Coalesce(prev *Transaction) {
	if t.UniqueID == nil {
		t.UniqueID = cloneHash(prev.UniqueID)
	}
	if t.BlockNum == nil && prev.BlockNum != nil {
		n := *prev.BlockNum
		t.BlockNum = &n
	}
	if t.ChildTxID == nil {
		t.ChildTxID = cloneHash(prev.ChildTxID)
	}
	if t.ResolvedAt == nil {
		t.ResolvedAt = cloneTime(prev.ResolvedAt)
	}
	if prev.Cctp == nil {
		return
	}
	if t.Cctp == nil {
		t.Cctp = prev.Cctp.clone()
		return
	}
	if t.Cctp.AttestationHash == nil {
		t.Cctp.AttestationHash = cloneHash(prev.Cctp.AttestationHash)
	}
	if t.Cctp.MessageBytes == nil {
		t.Cctp.MessageBytes = bytes.Clone(prev.Cctp.MessageBytes)
	}
	if t.Cctp.Attestation == nil {
		t.Cctp.Attestation = bytes.Clone(prev.Cctp.Attestation)
	}
	if t.Cctp.ReceiveMessageTransactionHash == nil {
		t.Cctp.ReceiveMessageTransactionHash = cloneHash(prev.Cctp.ReceiveMessageTransactionHash)
	}
	if t.Cctp.ReceiveMessageTimestamp == nil {
		t.Cctp.ReceiveMessageTimestamp = cloneTime(prev.Cctp.ReceiveMessageTimestamp)
	}
}

type TransactionPatch struct {
	Status     *TransferStatus `json:"status,omitempty"`
	UniqueID   *common.Hash    `json:"uniqueId,omitempty"`
	BlockNum   *uint64         `json:"blockNum,omitempty"`
	ChildTxID  *common.Hash    `json:"childTxId,omitempty"`
	Cctp       *CctpData       `json:"cctpData,omitempty"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
}

func (p *TransactionPatch) IsEmpty() bool {
	return p == nil || *p == TransactionPatch{}
}

// NewPatch returns the patch that turns prev into next, or nil when nothing changed.
// Fields are never cleared by a patch, records only accumulate information.
func NewPatch(prev, next *Transaction) *TransactionPatch {
	patch := new(TransactionPatch)
	if prev.Status != next.Status {
		status := next.Status
		patch.Status = &status
	}
	if !equalHash(prev.UniqueID, next.UniqueID) && next.UniqueID != nil {
		patch.UniqueID = cloneHash(next.UniqueID)
	}
	if next.BlockNum != nil && (prev.BlockNum == nil || *prev.BlockNum != *next.BlockNum) {
		n := *next.BlockNum
		patch.BlockNum = &n
	}
	if !equalHash(prev.ChildTxID, next.ChildTxID) && next.ChildTxID != nil {
		patch.ChildTxID = cloneHash(next.ChildTxID)
	}
	if next.Cctp != nil && !equalCctp(prev.Cctp, next.Cctp) {
		patch.Cctp = next.Cctp.clone()
	}
	if next.ResolvedAt != nil && prev.ResolvedAt == nil {
		patch.ResolvedAt = cloneTime(next.ResolvedAt)
	}
	if patch.IsEmpty() {
		return nil
	}
	return patch
}

type TransactionsRepo interface {
	Upsert(ctx context.Context, tx *Transaction) error
	GetByTxID(ctx context.Context, txID common.Hash) (*Transaction, error)
	FindByOwner(ctx context.Context, owner common.Address) ([]*Transaction, error)
	UpdateByKey(ctx context.Context, txID common.Hash, patch *TransactionPatch) (*Transaction, error)
	FindPending(ctx context.Context, limit uint64) ([]*Transaction, error)
}

func cloneHash(h *common.Hash) *common.Hash {
	if h == nil {
		return nil
	}
	res := *h
	return &res
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	res := *t
	return &res
}

func equalHash(a, b *common.Hash) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalCctp(a, b *CctpData) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.SourceDomain == b.SourceDomain &&
		equalHash(a.AttestationHash, b.AttestationHash) &&
		bytes.Equal(a.MessageBytes, b.MessageBytes) &&
		bytes.Equal(a.Attestation, b.Attestation) &&
		equalHash(a.ReceiveMessageTransactionHash, b.ReceiveMessageTransactionHash) &&
		equalTime(a.ReceiveMessageTimestamp, b.ReceiveMessageTimestamp)
}
