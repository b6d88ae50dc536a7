package tracker

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-transfers/cctp"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/reconcile"
)

// receiveLookbackBlocks bounds the destination chain range searched for MessageReceived.
const receiveLookbackBlocks = 100_000

// CctpMessage holds the routing header of a CCTP message.
type CctpMessage struct {
	SourceDomain      uint32
	DestinationDomain uint32
	Nonce             uint64
}

// ParseCctpMessage reads the header: version, source domain, destination domain, nonce.
func ParseCctpMessage(message []byte) (*CctpMessage, error) {
	if len(message) < 20 {
		return nil, fmt.Errorf("cctp message of %d bytes: %w", len(message), ErrMissingEvent)
	}
	return &CctpMessage{
		SourceDomain:      binary.BigEndian.Uint32(message[4:8]),
		DestinationDomain: binary.BigEndian.Uint32(message[8:12]),
		Nonce:             binary.BigEndian.Uint64(message[12:20]),
	}, nil
}

// UsedNonceKey is the MessageTransmitter.usedNonces key of the message.
func (m *CctpMessage) UsedNonceKey() common.Hash {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], m.SourceDomain)
	binary.BigEndian.PutUint64(buf[4:], m.Nonce)
	return crypto.Keccak256Hash(buf[:])
}

// FindMessageSent returns the message bytes of the first MessageSent event of the transmitter.
func FindMessageSent(receipt *types.Receipt, transmitter common.Address) ([]byte, error) {
	events, err := abi.MessageTransmitter.FindLogs(receipt.Logs, transmitter, abi.MessageSent)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if message, ok := ev["message"].([]byte); ok && len(message) > 0 {
			return message, nil
		}
	}
	return nil, nil
}

func (t *Tracker) cctpChains(tx *entity.Transaction) (source, destination *config.ChainConfig, err error) {
	source, err = t.chains.Chain(tx.SourceChainID)
	if err != nil {
		return nil, nil, err
	}
	destination, err = t.chains.Chain(tx.DestinationChainID)
	if err != nil {
		return nil, nil, err
	}
	if source.CCTP == nil || destination.CCTP == nil {
		return nil, nil, fmt.Errorf("no cctp deployment for %d -> %d: %w", tx.SourceChainID, tx.DestinationChainID, ErrMissingEvent)
	}
	return source, destination, nil
}

func (t *Tracker) cctpEvidence(ctx context.Context, tx *entity.Transaction, receipt *types.Receipt) ([]reconcile.Evidence, error) {
	source, destination, err := t.cctpChains(tx)
	if err != nil {
		return nil, err
	}
	sr := sourceReceipt(receipt)
	if sr.Success {
		message, err := FindMessageSent(receipt, source.CCTP.MessageTransmitter)
		if err != nil {
			return nil, err
		}
		if message != nil {
			hash := crypto.Keccak256Hash(message)
			sr.MessageBytes = message
			sr.AttestationHash = &hash
		}
	}
	res := []reconcile.Evidence{sr}
	if sr.AttestationHash == nil {
		return res, nil
	}

	att, err := t.attestations.GetAttestation(ctx, *sr.AttestationHash)
	if errors.Is(err, cctp.ErrAttestationPending) {
		return append(res, reconcile.Attestation{Complete: false}), nil
	}
	if err != nil {
		return res, fmt.Errorf("can't get attestation: %w", err)
	}
	res = append(res, reconcile.Attestation{Complete: true, Attestation: att.Attestation})

	client, err := t.clients.Get(destination.ChainID)
	if err != nil {
		return res, err
	}
	received, err := FindReceive(ctx, client, destination.CCTP.MessageTransmitter, sr.MessageBytes)
	if err != nil {
		return res, err
	}
	if received != nil {
		res = append(res, *received)
	}
	return res, nil
}

// FindReceive reports whether the message was received on the destination chain, nil when not yet.
func FindReceive(ctx context.Context, client ethclient.Client, transmitter common.Address, message []byte) (*reconcile.ReceiveMessage, error) {
	msg, err := ParseCctpMessage(message)
	if err != nil {
		return nil, err
	}
	used, err := contract.NewMessageTransmitter(client, transmitter).UsedNonces(ctx, msg.UsedNonceKey())
	if err != nil {
		return nil, fmt.Errorf("can't check used nonce: %w", err)
	}
	if used.Sign() == 0 {
		return nil, nil
	}

	res := &reconcile.ReceiveMessage{Success: true}
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get destination head: %w", err)
	}
	var from uint64
	if head > receiveLookbackBlocks {
		from = head - receiveLookbackBlocks
	}
	logs, err := scanLogs(ctx, client, ethereum.FilterQuery{
		Addresses: []common.Address{transmitter},
		Topics: [][]common.Hash{
			{abi.MessageTransmitter.EventID("MessageReceived")},
			nil,
			{common.BigToHash(new(big.Int).SetUint64(msg.Nonce))},
		},
	}, from, head)
	if err != nil {
		return nil, fmt.Errorf("can't get MessageReceived logs: %w", err)
	}
	for i := range logs {
		_, values, err := abi.MessageTransmitter.ParseLog(&logs[i])
		if err != nil {
			return nil, err
		}
		if domain, _ := values["sourceDomain"].(uint32); domain != msg.SourceDomain {
			continue
		}
		res.TxHash = hashPtr(logs[i].TxHash)
		header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(logs[i].BlockNumber))
		if err != nil {
			return nil, fmt.Errorf("can't get receive block: %w", err)
		}
		res.Timestamp = time.Unix(int64(header.Time), 0).UTC()
		break
	}
	return res, nil
}
