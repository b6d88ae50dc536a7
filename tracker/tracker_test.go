package tracker_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/cctp"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/contract/abi"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/ethclient"
	"github.com/omni/tokenbridge-transfers/ethclient/ethclienttest"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/network"
	"github.com/omni/tokenbridge-transfers/reconcile"
	"github.com/omni/tokenbridge-transfers/repository/memory"
	"github.com/omni/tokenbridge-transfers/tracker"
)

var (
	bridgeAddr    = common.HexToAddress("0x8315177aB297bA92A06054cE80a67Ed4DBd7ed3a")
	inboxAddr     = common.HexToAddress("0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f")
	outboxAddr    = common.HexToAddress("0x0B9857ae2D4A3DBe74ffE1d7DF045bb7F96E4840")
	l1Transmitter = common.HexToAddress("0x0a992d191DEeC32aFe36203Ad87D7d289a738F81")
	l2Transmitter = common.HexToAddress("0xC30362313FBBA5cf9163F0bb16a0e01f01A896ca")
	sender        = common.HexToAddress("0x1000000000000000000000000000000000000011")
	recipient     = common.HexToAddress("0x2000000000000000000000000000000000000022")
	sourceTxID    = common.HexToHash("0xabcdef")
)

func testChains() map[string]*config.ChainConfig {
	mainnet := &config.ChainConfig{
		ChainID: 1,
		CCTP:    &config.CctpChainConfig{Domain: 0, MessageTransmitter: l1Transmitter},
	}
	arb := &config.ChainConfig{
		ChainID:             42161,
		Parent:              mainnet,
		ConfirmPeriodBlocks: 45,
		EthBridge:           &config.EthBridgeConfig{Bridge: bridgeAddr, Inbox: inboxAddr, Outbox: outboxAddr},
		CCTP:                &config.CctpChainConfig{Domain: 3, MessageTransmitter: l2Transmitter},
	}
	return map[string]*config.ChainConfig{"mainnet": mainnet, "arbitrum-one": arb}
}

type attestations struct {
	res *cctp.Attestation
	err error
}

func (a *attestations) GetAttestation(context.Context, common.Hash) (*cctp.Attestation, error) {
	return a.res, a.err
}

func newTracker(att tracker.AttestationSource, clients ...ethclient.Client) *tracker.Tracker {
	registry := network.NewRegistry(logging.Nop(), testChains(), memory.NewCustomChainsRepo())
	return tracker.New(logging.Nop(), registry, ethclient.NewStaticPool(clients...), att)
}

func eventLog(t *testing.T, contractABI abi.ABI, name string, addr common.Address, topics []common.Hash, args ...interface{}) *types.Log {
	t.Helper()
	event := contractABI.Events[name]
	data, err := event.Inputs.NonIndexed().Pack(args...)
	require.NoError(t, err)
	return &types.Log{
		Address: addr,
		Topics:  append([]common.Hash{event.ID}, topics...),
		Data:    data,
	}
}

func word(v *big.Int) []byte {
	return common.BigToHash(v).Bytes()
}

func retryableMessageData(data *tracker.RetryableData) []byte {
	var res []byte
	res = append(res, common.BytesToHash(data.Destination.Bytes()).Bytes()...)
	res = append(res, word(data.L2CallValue)...)
	res = append(res, word(data.L1Value)...)
	res = append(res, word(data.MaxSubmissionFee)...)
	res = append(res, common.BytesToHash(data.ExcessFeeRefundAddress.Bytes()).Bytes()...)
	res = append(res, common.BytesToHash(data.CallValueRefundAddress.Bytes()).Bytes()...)
	res = append(res, word(data.GasLimit)...)
	res = append(res, word(data.MaxFeePerGas)...)
	res = append(res, word(big.NewInt(int64(len(data.Data))))...)
	return append(res, data.Data...)
}

func testRetryable() *tracker.RetryableData {
	return &tracker.RetryableData{
		Destination:            recipient,
		L2CallValue:            big.NewInt(1_000_000),
		L1Value:                big.NewInt(2_000_000),
		MaxSubmissionFee:       big.NewInt(3_000),
		ExcessFeeRefundAddress: sender,
		CallValueRefundAddress: recipient,
		GasLimit:               big.NewInt(300_000),
		MaxFeePerGas:           big.NewInt(600_000_000),
		Data:                   []byte{0xde, 0xad, 0xbe, 0xef},
	}
}

func depositReceipt(t *testing.T, kind uint8, data []byte) *types.Receipt {
	t.Helper()
	index := big.NewInt(1234)
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      sourceTxID,
		BlockNumber: big.NewInt(90),
		Logs: []*types.Log{
			eventLog(t, abi.Bridge, "MessageDelivered", bridgeAddr,
				[]common.Hash{common.BigToHash(index), common.HexToHash("0x01")},
				inboxAddr, kind, sender, crypto.Keccak256Hash(data), big.NewInt(15_000_000_000), uint64(1700000000)),
			eventLog(t, abi.Inbox, "InboxMessageDelivered", inboxAddr,
				[]common.Hash{common.BigToHash(index)}, data),
		},
	}
}

func depositRecord() *entity.Transaction {
	return &entity.Transaction{
		TxID:               sourceTxID,
		Direction:          entity.DirectionDepositL1,
		Type:               entity.TransferTypeErc20Deposit,
		Status:             entity.StatusL1Pending,
		ParentChainID:      1,
		ChildChainID:       42161,
		SourceChainID:      1,
		DestinationChainID: 42161,
	}
}

func TestSubmitRetryableID(t *testing.T) {
	t.Parallel()

	data := testRetryable()
	msg := &tracker.InboxMessage{Number: big.NewInt(1234), Kind: tracker.KindSubmitRetryable, Sender: sender, BaseFee: big.NewInt(15_000_000_000)}
	id, err := tracker.SubmitRetryableID(42161, msg, data)
	require.NoError(t, err)

	enc, err := rlp.EncodeToBytes(&struct {
		ChainID                *big.Int
		MessageNumber          common.Hash
		From                   common.Address
		BaseFee                *big.Int
		L1Value                *big.Int
		MaxFeePerGas           *big.Int
		GasLimit               *big.Int
		Destination            common.Address
		L2CallValue            *big.Int
		CallValueRefundAddress common.Address
		MaxSubmissionFee       *big.Int
		ExcessFeeRefundAddress common.Address
		Data                   []byte
	}{
		big.NewInt(42161), common.BigToHash(big.NewInt(1234)), sender, big.NewInt(15_000_000_000),
		data.L1Value, data.MaxFeePerGas, data.GasLimit, recipient, data.L2CallValue,
		recipient, data.MaxSubmissionFee, sender, data.Data,
	})
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash([]byte{0x69}, enc), id)

	other, err := tracker.SubmitRetryableID(421614, msg, data)
	require.NoError(t, err)
	require.NotEqual(t, id, other)
}

func TestParseRetryableData(t *testing.T) {
	t.Parallel()

	data := testRetryable()
	parsed, err := tracker.ParseRetryableData(retryableMessageData(data))
	require.NoError(t, err)
	require.Equal(t, data, parsed)

	_, err = tracker.ParseRetryableData(make([]byte, 100))
	require.ErrorIs(t, err, tracker.ErrMissingEvent)

	truncated := retryableMessageData(data)
	_, err = tracker.ParseRetryableData(truncated[:len(truncated)-1])
	require.ErrorIs(t, err, tracker.ErrMissingEvent)
}

func TestEvidence_NotMined(t *testing.T) {
	t.Parallel()

	tr := newTracker(nil, ethclienttest.NewClient(1), ethclienttest.NewClient(42161))
	evidence, err := tr.Evidence(context.Background(), depositRecord())
	require.NoError(t, err)
	require.Empty(t, evidence)
}

func TestEvidence_FailedDeposit(t *testing.T) {
	t.Parallel()

	l1 := ethclienttest.NewClient(1)
	l1.SetReceipt(&types.Receipt{Status: types.ReceiptStatusFailed, TxHash: sourceTxID, BlockNumber: big.NewInt(90)})
	tr := newTracker(nil, l1, ethclienttest.NewClient(42161))

	evidence, err := tr.Evidence(context.Background(), depositRecord())
	require.NoError(t, err)
	require.Equal(t, []reconcile.Evidence{reconcile.SourceReceipt{Success: false, BlockNumber: 90}}, evidence)
}

func retryableSetup(t *testing.T) (*ethclienttest.Client, *ethclienttest.Client, common.Hash) {
	t.Helper()
	data := testRetryable()
	l1 := ethclienttest.NewClient(1)
	l1.SetReceipt(depositReceipt(t, tracker.KindSubmitRetryable, retryableMessageData(data)))
	l2 := ethclienttest.NewClient(42161)

	ticketID, err := tracker.SubmitRetryableID(42161, &tracker.InboxMessage{
		Number:  big.NewInt(1234),
		Sender:  sender,
		BaseFee: big.NewInt(15_000_000_000),
	}, data)
	require.NoError(t, err)
	return l1, l2, ticketID
}

func TestEvidence_RetryableNotYetCreated(t *testing.T) {
	t.Parallel()

	l1, l2, ticketID := retryableSetup(t)
	evidence, err := newTracker(nil, l1, l2).Evidence(context.Background(), depositRecord())
	require.NoError(t, err)
	require.Equal(t, []reconcile.Evidence{
		reconcile.SourceReceipt{Success: true, BlockNumber: 90},
		reconcile.RetryableStatus{State: reconcile.RetryableNotYetCreated, TicketID: &ticketID},
	}, evidence)
}

func TestEvidence_RetryableAutoRedeemed(t *testing.T) {
	t.Parallel()

	l1, l2, ticketID := retryableSetup(t)
	retryTx := common.HexToHash("0x0707")
	l2.SetReceipt(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      ticketID,
		BlockNumber: big.NewInt(50),
		Logs: []*types.Log{
			eventLog(t, abi.ArbRetryableTx, "RedeemScheduled", contract.ArbRetryableTxAddress,
				[]common.Hash{ticketID, retryTx, common.BigToHash(big.NewInt(0))},
				uint64(100_000), sender, big.NewInt(0), big.NewInt(0)),
		},
	})
	l2.SetReceipt(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: retryTx, BlockNumber: big.NewInt(50)})

	evidence, err := newTracker(nil, l1, l2).Evidence(context.Background(), depositRecord())
	require.NoError(t, err)
	require.Len(t, evidence, 2)
	require.Equal(t, reconcile.RetryableStatus{State: reconcile.RetryableRedeemed, TicketID: &ticketID, ChildTxID: &retryTx}, evidence[1])

	tx := depositRecord()
	now := time.Now()
	for _, ev := range evidence {
		next, err := reconcile.Transition(tx, ev, now)
		require.NoError(t, err)
		tx = next
	}
	require.Equal(t, entity.StatusL2Success, tx.Status)
	require.Equal(t, &ticketID, tx.UniqueID)
}

func TestEvidence_RetryableManualRedeem(t *testing.T) {
	t.Parallel()

	l1, l2, ticketID := retryableSetup(t)
	failedRetry, manualRetry := common.HexToHash("0x0707"), common.HexToHash("0x0808")
	l2.SetReceipt(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      ticketID,
		BlockNumber: big.NewInt(50),
		Logs: []*types.Log{
			eventLog(t, abi.ArbRetryableTx, "RedeemScheduled", contract.ArbRetryableTxAddress,
				[]common.Hash{ticketID, failedRetry, common.BigToHash(big.NewInt(0))},
				uint64(100_000), sender, big.NewInt(0), big.NewInt(0)),
		},
	})
	l2.SetReceipt(&types.Receipt{Status: types.ReceiptStatusFailed, TxHash: failedRetry, BlockNumber: big.NewInt(50)})
	manual := eventLog(t, abi.ArbRetryableTx, "RedeemScheduled", contract.ArbRetryableTxAddress,
		[]common.Hash{ticketID, manualRetry, common.BigToHash(big.NewInt(1))},
		uint64(0), sender, big.NewInt(0), big.NewInt(0))
	manual.BlockNumber = 70
	l2.AddLogs(*manual)
	l2.SetReceipt(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: manualRetry, BlockNumber: big.NewInt(70)})

	evidence, err := newTracker(nil, l1, l2).Evidence(context.Background(), depositRecord())
	require.NoError(t, err)
	require.Equal(t, reconcile.RetryableStatus{State: reconcile.RetryableRedeemed, TicketID: &ticketID, ChildTxID: &manualRetry}, evidence[1])
}

func TestEvidence_RetryableWaitingOrExpired(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		timeout func([]interface{}) ([]interface{}, error)
		state   reconcile.RetryableState
	}{
		{"redeemable", func([]interface{}) ([]interface{}, error) {
			return []interface{}{big.NewInt(1700000000 + 100 + 3600)}, nil
		}, reconcile.RetryableCreated},
		{"timed out", func([]interface{}) ([]interface{}, error) {
			return []interface{}{big.NewInt(1700000000)}, nil
		}, reconcile.RetryableExpired},
		{"ticket gone", func([]interface{}) ([]interface{}, error) {
			return nil, errors.New("execution reverted: NoTicketWithID()")
		}, reconcile.RetryableExpired},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			l1, l2, ticketID := retryableSetup(t)
			l2.SetReceipt(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: ticketID, BlockNumber: big.NewInt(50)})
			l2.Handle(contract.ArbRetryableTxAddress, abi.ArbRetryableTx.ABI, "getTimeout", tc.timeout)

			evidence, err := newTracker(nil, l1, l2).Evidence(context.Background(), depositRecord())
			require.NoError(t, err)
			require.Equal(t, reconcile.RetryableStatus{State: tc.state, TicketID: &ticketID}, evidence[1])
		})
	}
}

func TestEvidence_RetryableCreationFailed(t *testing.T) {
	t.Parallel()

	l1, l2, ticketID := retryableSetup(t)
	l2.SetReceipt(&types.Receipt{Status: types.ReceiptStatusFailed, TxHash: ticketID, BlockNumber: big.NewInt(50)})

	evidence, err := newTracker(nil, l1, l2).Evidence(context.Background(), depositRecord())
	require.NoError(t, err)
	require.Equal(t, reconcile.RetryableStatus{State: reconcile.RetryableCreationFailed, TicketID: &ticketID}, evidence[1])
}

func TestEvidence_EthDeposit(t *testing.T) {
	t.Parallel()

	data := append(recipient.Bytes(), word(big.NewInt(1e18))...)
	l1 := ethclienttest.NewClient(1)
	l1.SetReceipt(depositReceipt(t, tracker.KindEthDeposit, data))
	l2 := ethclienttest.NewClient(42161)

	depositID, err := tracker.EthDepositID(42161, &tracker.InboxMessage{Number: big.NewInt(1234), Sender: sender, Data: data})
	require.NoError(t, err)
	enc, err := rlp.EncodeToBytes([]interface{}{big.NewInt(42161), common.BigToHash(big.NewInt(1234)), sender, recipient, big.NewInt(1e18)})
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash([]byte{0x64}, enc), depositID)

	tr := newTracker(nil, l1, l2)
	rec := depositRecord()
	rec.Type = entity.TransferTypeEthDeposit

	evidence, err := tr.Evidence(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, reconcile.RetryableStatus{State: reconcile.RetryableNotYetCreated, TicketID: &depositID}, evidence[1])

	l2.SetReceipt(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: depositID, BlockNumber: big.NewInt(10)})
	evidence, err = tr.Evidence(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, reconcile.RetryableStatus{State: reconcile.RetryableFundsDeposited, TicketID: &depositID, ChildTxID: &depositID}, evidence[1])
}

func TestEvidence_DepositWithoutMessage(t *testing.T) {
	t.Parallel()

	l1 := ethclienttest.NewClient(1)
	l1.SetReceipt(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: sourceTxID, BlockNumber: big.NewInt(90)})
	evidence, err := newTracker(nil, l1, ethclienttest.NewClient(42161)).Evidence(context.Background(), depositRecord())
	require.ErrorIs(t, err, tracker.ErrMissingEvent)
	require.Len(t, evidence, 1)
}

func withdrawalSetup(t *testing.T, spent bool) (*tracker.Tracker, *entity.Transaction) {
	t.Helper()
	l2 := ethclienttest.NewClient(42161)
	l2.SetReceipt(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      sourceTxID,
		BlockNumber: big.NewInt(500),
		Logs: []*types.Log{
			eventLog(t, abi.ArbSys, "L2ToL1Tx", contract.ArbSysAddress,
				[]common.Hash{common.BytesToHash(recipient.Bytes()), common.HexToHash("0x99"), common.BigToHash(big.NewInt(77))},
				sender, big.NewInt(500), big.NewInt(50), big.NewInt(1700000000), big.NewInt(1e18), []byte{}),
		},
	})
	l1 := ethclienttest.NewClient(1)
	l1.Handle(outboxAddr, abi.Outbox.ABI, "isSpent", func(args []interface{}) ([]interface{}, error) {
		require.Zero(t, big.NewInt(77).Cmp(args[0].(*big.Int)))
		return []interface{}{spent}, nil
	})
	return newTracker(nil, l1, l2), &entity.Transaction{
		TxID:               sourceTxID,
		Direction:          entity.DirectionWithdraw,
		Type:               entity.TransferTypeEthWithdrawal,
		Status:             entity.StatusUnconfirmed,
		ParentChainID:      1,
		ChildChainID:       42161,
		SourceChainID:      42161,
		DestinationChainID: 1,
	}
}

func TestEvidence_Withdrawal(t *testing.T) {
	t.Parallel()

	position := common.BigToHash(big.NewInt(77))

	// head 100 >= ethBlockNum 50 + 45 confirm blocks
	tr, rec := withdrawalSetup(t, false)
	evidence, err := tr.Evidence(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, []reconcile.Evidence{
		reconcile.SourceReceipt{Success: true, BlockNumber: 500},
		reconcile.WithdrawalStatus{State: reconcile.WithdrawalConfirmed, Position: &position},
	}, evidence)

	tr, rec = withdrawalSetup(t, true)
	evidence, err = tr.Evidence(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, reconcile.WithdrawalStatus{State: reconcile.WithdrawalExecuted, Position: &position}, evidence[1])
}

func cctpMessage(sourceDomain, destinationDomain uint32, nonce uint64) []byte {
	msg := make([]byte, 116)
	binary.BigEndian.PutUint32(msg[4:8], sourceDomain)
	binary.BigEndian.PutUint32(msg[8:12], destinationDomain)
	binary.BigEndian.PutUint64(msg[12:20], nonce)
	return msg
}

func cctpSetup(t *testing.T, message []byte) (*ethclienttest.Client, *ethclienttest.Client, *entity.Transaction) {
	t.Helper()
	l1 := ethclienttest.NewClient(1)
	l1.SetReceipt(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      sourceTxID,
		BlockNumber: big.NewInt(90),
		Logs:        []*types.Log{eventLog(t, abi.MessageTransmitter, "MessageSent", l1Transmitter, nil, message)},
	})
	return l1, ethclienttest.NewClient(42161), &entity.Transaction{
		TxID:               sourceTxID,
		Direction:          entity.DirectionDeposit,
		Type:               entity.TransferTypeCctp,
		Status:             entity.StatusCctpDefault,
		ParentChainID:      1,
		ChildChainID:       42161,
		SourceChainID:      1,
		DestinationChainID: 42161,
		Cctp:               &entity.CctpData{SourceDomain: 0},
	}
}

func TestParseCctpMessage(t *testing.T) {
	t.Parallel()

	msg, err := tracker.ParseCctpMessage(cctpMessage(0, 3, 123456))
	require.NoError(t, err)
	require.Equal(t, &tracker.CctpMessage{SourceDomain: 0, DestinationDomain: 3, Nonce: 123456}, msg)

	key := make([]byte, 12)
	binary.BigEndian.PutUint64(key[4:], 123456)
	require.Equal(t, crypto.Keccak256Hash(key), msg.UsedNonceKey())

	_, err = tracker.ParseCctpMessage([]byte{1, 2})
	require.ErrorIs(t, err, tracker.ErrMissingEvent)
}

func TestEvidence_CctpPendingAttestation(t *testing.T) {
	t.Parallel()

	message := cctpMessage(0, 3, 42)
	l1, l2, rec := cctpSetup(t, message)
	hash := crypto.Keccak256Hash(message)

	evidence, err := newTracker(&attestations{err: cctp.ErrAttestationPending}, l1, l2).Evidence(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, []reconcile.Evidence{
		reconcile.SourceReceipt{Success: true, BlockNumber: 90, MessageBytes: message, AttestationHash: &hash},
		reconcile.Attestation{Complete: false},
	}, evidence)
}

func TestEvidence_CctpReceived(t *testing.T) {
	t.Parallel()

	message := cctpMessage(0, 3, 42)
	l1, l2, rec := cctpSetup(t, message)
	msg, err := tracker.ParseCctpMessage(message)
	require.NoError(t, err)
	l2.Handle(l2Transmitter, abi.MessageTransmitter.ABI, "usedNonces", func(args []interface{}) ([]interface{}, error) {
		require.Equal(t, [32]byte(msg.UsedNonceKey()), args[0])
		return []interface{}{big.NewInt(1)}, nil
	})
	receiveTx := common.HexToHash("0x0909")
	received := eventLog(t, abi.MessageTransmitter, "MessageReceived", l2Transmitter,
		[]common.Hash{common.BytesToHash(sender.Bytes()), common.BigToHash(big.NewInt(42))},
		uint32(0), [32]byte{}, []byte{})
	received.BlockNumber = 95
	received.TxHash = receiveTx
	l2.AddLogs(*received)

	evidence, err := newTracker(&attestations{res: &cctp.Attestation{
		Status:      cctp.AttestationStatusComplete,
		Attestation: []byte{0xaa},
	}}, l1, l2).Evidence(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, evidence, 3)
	require.Equal(t, reconcile.Attestation{Complete: true, Attestation: []byte{0xaa}}, evidence[1])
	require.Equal(t, reconcile.ReceiveMessage{
		Success:   true,
		TxHash:    &receiveTx,
		Timestamp: time.Unix(1700000000+95, 0).UTC(),
	}, evidence[2])

	now := time.Now()
	for _, ev := range evidence {
		next, err := reconcile.Transition(rec, ev, now)
		require.NoError(t, err)
		rec = next
	}
	require.Equal(t, entity.StatusCctpComplete, rec.Status)
	require.Equal(t, &receiveTx, rec.Cctp.ReceiveMessageTransactionHash)
}

func TestEvidence_CctpFailedBurn(t *testing.T) {
	t.Parallel()

	l1, l2, rec := cctpSetup(t, cctpMessage(0, 3, 42))
	l1.SetReceipt(&types.Receipt{Status: types.ReceiptStatusFailed, TxHash: sourceTxID, BlockNumber: big.NewInt(90)})

	evidence, err := newTracker(nil, l1, l2).Evidence(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, []reconcile.Evidence{reconcile.SourceReceipt{Success: false, BlockNumber: 90}}, evidence)
}
