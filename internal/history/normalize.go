package history

import (
	"math/big"
	"sort"

	"github.com/devlongs/agent-console/pkg/types"
)

// EmptyHash is the placeholder used for events without a transaction hash
const EmptyHash = "0x"

// NormalizeExecutionHistory turns raw Executed events into the history of a
// single agent: events for other token ids are dropped, missing fields are
// defaulted, duplicate hashes collapse to their last occurrence and the result
// is ordered by block number, newest first.
func NormalizeExecutionHistory(events []types.ExecutionEvent, tokenID *big.Int) []types.TransactionRecord {
	if tokenID == nil {
		return []types.TransactionRecord{}
	}

	records := make([]types.TransactionRecord, 0, len(events))
	index := make(map[string]int, len(events))

	for _, ev := range events {
		if ev.TokenID == nil || ev.TokenID.Cmp(tokenID) != 0 {
			continue
		}

		rec := toRecord(ev)
		if i, ok := index[rec.Hash]; ok {
			// last one wins, first position is kept
			records[i] = rec
			continue
		}
		index[rec.Hash] = len(records)
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].BlockNumber > records[j].BlockNumber
	})

	return records
}

func toRecord(ev types.ExecutionEvent) types.TransactionRecord {
	rec := types.TransactionRecord{
		Hash:   EmptyHash,
		Result: []byte{},
	}
	if ev.TransactionHash != nil {
		rec.Hash = ev.TransactionHash.Hex()
	}
	if ev.BlockNumber != nil {
		rec.BlockNumber = *ev.BlockNumber
	}
	if ev.Target != nil {
		rec.Target = *ev.Target
	}
	if ev.Success != nil {
		rec.Success = *ev.Success
	}
	if ev.Result != nil {
		rec.Result = append([]byte{}, ev.Result...)
	}
	return rec
}
