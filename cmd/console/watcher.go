package main

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/devlongs/agent-console/internal/history"
	"github.com/devlongs/agent-console/internal/output"
	"github.com/devlongs/agent-console/internal/scanner"
)

// Watcher polls an agent's execution history and logs records it has not
// seen before
type Watcher struct {
	scanner  *scanner.Scanner
	logger   *output.Logger
	tokenID  *big.Int
	interval time.Duration

	seen map[string]uint64 // tx hash -> block
	mu   sync.Mutex
}

// NewWatcher creates a history watcher
func NewWatcher(s *scanner.Scanner, logger *output.Logger, tokenID *big.Int, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		scanner:  s,
		logger:   logger,
		tokenID:  tokenID,
		interval: interval,
		seen:     make(map[string]uint64),
	}
}

// Start runs the poll loop until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) error {
	log.Info().
		Str("tokenId", w.tokenID.String()).
		Dur("interval", w.interval).
		Msg("Starting history watcher...")

	if err := w.poll(ctx); err != nil {
		w.logger.LogError(err, "initial scan")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Stats ticker (every 30 seconds)
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down watcher...")
			return ctx.Err()

		case <-statsTicker.C:
			w.logger.LogStats()

		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				w.logger.LogError(err, "polling history")
			}
		}
	}
}

// poll rescans the window and logs unseen records, oldest first. Hashes
// below the window are forgotten.
func (w *Watcher) poll(ctx context.Context) error {
	res, err := w.scanner.Scan(ctx, w.tokenID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	fresh := 0
	for i := len(res.Records) - 1; i >= 0; i-- {
		rec := res.Records[i]
		if rec.Hash == history.EmptyHash {
			continue
		}
		if _, ok := w.seen[rec.Hash]; ok {
			continue
		}
		w.seen[rec.Hash] = rec.BlockNumber
		w.logger.LogRecord(rec)
		fresh++
	}

	if len(res.Ranges) > 0 {
		floor := res.Ranges[len(res.Ranges)-1].FromBlock
		for hash, block := range w.seen {
			if block < floor {
				delete(w.seen, hash)
			}
		}
	}

	log.Debug().
		Uint64("latestBlock", res.LatestBlock).
		Int("records", len(res.Records)).
		Int("new", fresh).
		Dur("duration", res.Duration).
		Msg("History polled")

	return nil
}
