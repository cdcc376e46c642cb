package scanner

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/devlongs/agent-console/internal/config"
	"github.com/devlongs/agent-console/internal/decoder"
	"github.com/devlongs/agent-console/internal/history"
	"github.com/devlongs/agent-console/pkg/types"
)

// LogSource is the part of the chain client the scanner needs
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]ethtypes.Log, error)
}

// Scanner reads an agent's execution history from AgentNFA logs
type Scanner struct {
	source  LogSource
	decoder *decoder.Decoder
	cfg     config.HistoryConfig
}

// Result is the outcome of one history scan
type Result struct {
	TokenID     *big.Int
	LatestBlock uint64
	Ranges      []types.BlockRange
	LogCount    int
	Records     []types.TransactionRecord
	Duration    time.Duration
}

// NewScanner creates a history scanner
func NewScanner(source LogSource, dec *decoder.Decoder, cfg config.HistoryConfig) *Scanner {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 1
	}
	return &Scanner{
		source:  source,
		decoder: dec,
		cfg:     cfg,
	}
}

// Scan fetches the recent Executed events of tokenID, chunk by chunk, and
// returns the normalized history
func (s *Scanner) Scan(ctx context.Context, tokenID *big.Int) (*Result, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return nil, fmt.Errorf("invalid token id")
	}
	if s.cfg.NFAAddress == (common.Address{}) {
		return nil, fmt.Errorf("AgentNFA address is not configured")
	}

	startTime := time.Now()

	latestBlock, err := s.source.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	ranges := history.BuildBlockRanges(latestBlock, s.windowSize(latestBlock), s.cfg.ChunkSize)

	log.Debug().
		Str("tokenId", tokenID.String()).
		Uint64("latestBlock", latestBlock).
		Int("ranges", len(ranges)).
		Msg("Scanning execution history")

	logs, err := s.fetchRanges(ctx, tokenID, ranges)
	if err != nil {
		return nil, err
	}

	events := s.decoder.DecodeLogs(logs)

	return &Result{
		TokenID:     new(big.Int).Set(tokenID),
		LatestBlock: latestBlock,
		Ranges:      ranges,
		LogCount:    len(logs),
		Records:     history.NormalizeExecutionHistory(events, tokenID),
		Duration:    time.Since(startTime),
	}, nil
}

// windowSize limits the scan so it never reaches below the deploy block
func (s *Scanner) windowSize(latestBlock uint64) uint64 {
	total := s.cfg.TotalBlocks
	if s.cfg.DeployBlock > 0 && s.cfg.DeployBlock <= latestBlock && latestBlock-s.cfg.DeployBlock < total {
		total = latestBlock - s.cfg.DeployBlock
	}
	return total
}

// fetchRanges queries all ranges with bounded concurrency and returns the
// logs in range order
func (s *Scanner) fetchRanges(ctx context.Context, tokenID *big.Int, ranges []types.BlockRange) ([]ethtypes.Log, error) {
	results := make([][]ethtypes.Log, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.WorkerCount)

	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			logs, err := s.source.GetLogs(gctx, s.decoder.FilterQuery(s.cfg.NFAAddress, tokenID, r))
			if err != nil {
				return fmt.Errorf("range [%d, %d]: %w", r.FromBlock, r.ToBlock, err)
			}
			results[i] = logs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []ethtypes.Log
	for _, logs := range results {
		all = append(all, logs...)
	}
	return all, nil
}
