package decoder

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"

	"github.com/devlongs/agent-console/pkg/types"
)

// AgentNFA Executed event
// event Executed(uint256 indexed tokenId, address indexed caller, address indexed account, address target, bytes4 selector, bool success, bytes result)
const executedEventABI = `[{"anonymous":false,"inputs":[{"indexed":true,"name":"tokenId","type":"uint256"},{"indexed":true,"name":"caller","type":"address"},{"indexed":true,"name":"account","type":"address"},{"indexed":false,"name":"target","type":"address"},{"indexed":false,"name":"selector","type":"bytes4"},{"indexed":false,"name":"success","type":"bool"},{"indexed":false,"name":"result","type":"bytes"}],"name":"Executed","type":"event"}]`

// ErrNotExecutedEvent is returned for logs whose topic0 is not Executed
var ErrNotExecutedEvent = errors.New("not an Executed event")

// Decoder decodes AgentNFA Executed logs
type Decoder struct {
	event abi.Event
}

// NewDecoder parses the Executed event ABI
func NewDecoder() (*Decoder, error) {
	parsed, err := abi.JSON(strings.NewReader(executedEventABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Executed ABI: %w", err)
	}

	return &Decoder{event: parsed.Events["Executed"]}, nil
}

// EventSignature returns the topic0 of Executed logs
func (d *Decoder) EventSignature() common.Hash {
	return d.event.ID
}

// Arguments returns the non-indexed event arguments, in data order
func (d *Decoder) Arguments() abi.Arguments {
	return d.event.Inputs.NonIndexed()
}

// TokenIDTopic encodes a token id as an indexed topic
func TokenIDTopic(tokenID *big.Int) common.Hash {
	return common.BigToHash(tokenID)
}

// FilterQuery builds the log filter for one agent's Executed events in a range
func (d *Decoder) FilterQuery(contract common.Address, tokenID *big.Int, r types.BlockRange) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(r.FromBlock),
		ToBlock:   new(big.Int).SetUint64(r.ToBlock),
		Addresses: []common.Address{contract},
		Topics: [][]common.Hash{
			{d.event.ID},
			{TokenIDTopic(tokenID)},
		},
	}
}

// DecodeExecutedLog decodes a single Executed log.
//
// A log whose data section cannot be unpacked still yields an event carrying
// the hash, block and indexed fields; the remaining fields stay unset.
func (d *Decoder) DecodeExecutedLog(log ethtypes.Log) (types.ExecutionEvent, error) {
	if len(log.Topics) == 0 || log.Topics[0] != d.event.ID {
		return types.ExecutionEvent{}, ErrNotExecutedEvent
	}

	txHash := log.TxHash
	blockNumber := log.BlockNumber
	ev := types.ExecutionEvent{
		TransactionHash: &txHash,
		BlockNumber:     &blockNumber,
		LogIndex:        log.Index,
	}

	// Decode indexed parameters from topics
	if len(log.Topics) > 1 {
		ev.TokenID = new(big.Int).SetBytes(log.Topics[1].Bytes())
	}
	if len(log.Topics) > 2 {
		caller := common.BytesToAddress(log.Topics[2].Bytes())
		ev.Caller = &caller
	}
	if len(log.Topics) > 3 {
		account := common.BytesToAddress(log.Topics[3].Bytes())
		ev.Account = &account
	}

	// Decode non-indexed parameters from data
	values, err := d.Arguments().Unpack(log.Data)
	if err != nil || len(values) != 4 {
		logMalformed(log, err)
		return ev, nil
	}

	if target, ok := values[0].(common.Address); ok {
		ev.Target = &target
	}
	if selector, ok := values[1].([4]byte); ok {
		ev.Selector = &selector
	}
	if success, ok := values[2].(bool); ok {
		ev.Success = &success
	}
	if result, ok := values[3].([]byte); ok {
		ev.Result = result
	}

	return ev, nil
}

// DecodeLogs decodes every Executed log, skipping foreign events, and orders
// the result by block number and log index
func (d *Decoder) DecodeLogs(logs []ethtypes.Log) []types.ExecutionEvent {
	sorted := make([]ethtypes.Log, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].Index < sorted[j].Index
	})

	events := make([]types.ExecutionEvent, 0, len(sorted))
	for _, l := range sorted {
		ev, err := d.DecodeExecutedLog(l)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}

	return events
}

func logMalformed(l ethtypes.Log, err error) {
	evt := log.Warn().
		Str("txHash", l.TxHash.Hex()).
		Uint64("block", l.BlockNumber).
		Int("dataLen", len(l.Data))
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg("Malformed Executed log data")
}
