package abi

//nolint:golint
import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrInvalidEvent = errors.New("invalid event")

var (
	//go:embed erc20.json
	erc20JSONABI string
	//go:embed l1_gateway_router.json
	l1GatewayRouterJSONABI string
	//go:embed l2_gateway_router.json
	l2GatewayRouterJSONABI string
	//go:embed inbox.json
	inboxJSONABI string
	//go:embed bridge.json
	bridgeJSONABI string
	//go:embed arb_sys.json
	arbSysJSONABI string
	//go:embed arb_retryable_tx.json
	arbRetryableTxJSONABI string
	//go:embed outbox.json
	outboxJSONABI string
	//go:embed token_messenger.json
	tokenMessengerJSONABI string
	//go:embed token_minter.json
	tokenMinterJSONABI string
	//go:embed message_transmitter.json
	messageTransmitterJSONABI string
	//go:embed l1_teleporter.json
	l1TeleporterJSONABI string
)

var (
	ERC20              = MustReadABI(erc20JSONABI)
	L1GatewayRouter    = MustReadABI(l1GatewayRouterJSONABI)
	L2GatewayRouter    = MustReadABI(l2GatewayRouterJSONABI)
	Inbox              = MustReadABI(inboxJSONABI)
	Bridge             = MustReadABI(bridgeJSONABI)
	ArbSys             = MustReadABI(arbSysJSONABI)
	ArbRetryableTx     = MustReadABI(arbRetryableTxJSONABI)
	Outbox             = MustReadABI(outboxJSONABI)
	TokenMessenger     = MustReadABI(tokenMessengerJSONABI)
	TokenMinter        = MustReadABI(tokenMinterJSONABI)
	MessageTransmitter = MustReadABI(messageTransmitterJSONABI)
	L1Teleporter       = MustReadABI(l1TeleporterJSONABI)
)

const (
	MessageDelivered      = "event MessageDelivered(uint256 indexed messageIndex, bytes32 indexed beforeInboxAcc, address inbox, uint8 kind, address sender, bytes32 messageDataHash, uint256 baseFeeL1, uint64 timestamp)"
	InboxMessageDelivered = "event InboxMessageDelivered(uint256 indexed messageNum, bytes data)"
	L2ToL1Tx              = "event L2ToL1Tx(address caller, address indexed destination, uint256 indexed hash, uint256 indexed position, uint256 arbBlockNum, uint256 ethBlockNum, uint256 timestamp, uint256 callvalue, bytes data)"
	RedeemScheduled       = "event RedeemScheduled(bytes32 indexed ticketId, bytes32 indexed retryTxHash, uint64 indexed sequenceNum, uint64 donatedGas, address gasDonor, uint256 maxRefund, uint256 submissionFeeRefund)"
	MessageSent           = "event MessageSent(bytes message)"
	MessageReceived       = "event MessageReceived(address indexed caller, uint32 sourceDomain, uint64 indexed nonce, bytes32 sender, bytes messageBody)"
)

type ABI struct {
	abi.ABI
}

func MustReadABI(rawJSON string) ABI {
	res, err := abi.JSON(strings.NewReader(rawJSON))
	if err != nil {
		panic(err)
	}
	return ABI{res}
}

func (abi *ABI) AllEvents() map[string]bool {
	events := make(map[string]bool, len(abi.Events))
	for _, event := range abi.Events {
		events[event.String()] = true
	}
	return events
}

// EventID returns the topic0 hash of the event with the given name.
func (abi *ABI) EventID(name string) common.Hash {
	return abi.Events[name].ID
}

func (abi *ABI) FindMatchingEventABI(topics []common.Hash) *abi.Event {
	for _, e := range abi.Events {
		if e.ID == topics[0] {
			indexed := Indexed(e.Inputs)
			if len(indexed) == len(topics)-1 {
				return &e
			}
		}
	}
	return nil
}

// ParseLog decodes the log against every event of the ABI. An empty event name
// with a nil error means the log belongs to some other event.
func (abi *ABI) ParseLog(log *types.Log) (string, map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return "", nil, fmt.Errorf("can't process log without topics: %w", ErrInvalidEvent)
	}
	event := abi.FindMatchingEventABI(log.Topics)
	if event == nil {
		return "", nil, nil
	}

	res, err := DecodeEventLog(event, log.Topics, log.Data)
	if err != nil {
		return "", nil, fmt.Errorf("can't decode event log: %w", err)
	}
	return event.String(), res, nil
}

// FindLogs filters receipt logs emitted by the given address that decode to the given event.
func (abi *ABI) FindLogs(logs []*types.Log, address common.Address, event string) ([]map[string]interface{}, error) {
	var res []map[string]interface{}
	for _, log := range logs {
		if log.Address != address {
			continue
		}
		name, values, err := abi.ParseLog(log)
		if err != nil {
			return nil, err
		}
		if name == event {
			res = append(res, values)
		}
	}
	return res, nil
}
