package history

import (
	"github.com/devlongs/agent-console/pkg/types"
)

// BuildBlockRanges splits [max(0, latestBlock-totalBlocksToScan), latestBlock]
// into chunks of at most chunkSize+1 blocks, newest first.
//
// The ranges are adjacent and never overlap, and the last one always starts at
// the lower bound of the window. A zero chunkSize is treated as 1.
func BuildBlockRanges(latestBlock, totalBlocksToScan, chunkSize uint64) []types.BlockRange {
	if chunkSize == 0 {
		chunkSize = 1
	}

	var minBlock uint64
	if latestBlock > totalBlocksToScan {
		minBlock = latestBlock - totalBlocksToScan
	}

	var ranges []types.BlockRange

	toBlock := latestBlock
	for {
		fromBlock := minBlock
		if toBlock-minBlock > chunkSize {
			fromBlock = toBlock - chunkSize
		}
		ranges = append(ranges, types.BlockRange{FromBlock: fromBlock, ToBlock: toBlock})

		// fromBlock-1 would underflow at genesis
		if fromBlock == minBlock {
			break
		}
		toBlock = fromBlock - 1
	}

	return ranges
}
