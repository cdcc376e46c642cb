package output

import (
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devlongs/agent-console/internal/config"
	"github.com/devlongs/agent-console/internal/history"
	"github.com/devlongs/agent-console/internal/scanner"
	"github.com/devlongs/agent-console/internal/swap"
	"github.com/devlongs/agent-console/pkg/types"
)

// Logger handles output formatting for agent activity
type Logger struct {
	explorerBase string
	stats        *Stats
}

// Stats tracks history scan statistics
type Stats struct {
	Scans          uint64
	RangesScanned  uint64
	LogsFetched    uint64
	RecordsEmitted uint64
	StartTime      time.Time
}

// NewLogger configures the global zerolog logger and returns an output logger.
// explorerBase is the transaction URL prefix used for record links.
func NewLogger(cfg config.LoggingConfig, explorerBase string) *Logger {
	switch cfg.Format {
	case "json":
		// Default JSON output
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}

	switch cfg.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}

	return &Logger{
		explorerBase: strings.TrimSuffix(explorerBase, "/"),
		stats: &Stats{
			StartTime: time.Now(),
		},
	}
}

// TxURL returns the explorer link for a transaction hash, or "" when the
// hash is missing or no explorer is configured
func (l *Logger) TxURL(hash string) string {
	if l.explorerBase == "" || hash == "" || hash == history.EmptyHash {
		return ""
	}
	return l.explorerBase + "/" + hash
}

// LogScanComplete logs a finished history scan and each of its records
func (l *Logger) LogScanComplete(res *scanner.Result) {
	l.stats.Scans++
	l.stats.RangesScanned += uint64(len(res.Ranges))
	l.stats.LogsFetched += uint64(res.LogCount)

	log.Info().
		Str("tokenId", res.TokenID.String()).
		Uint64("latestBlock", res.LatestBlock).
		Int("ranges", len(res.Ranges)).
		Int("logs", res.LogCount).
		Int("records", len(res.Records)).
		Dur("duration", res.Duration).
		Msg("History scanned")

	for _, rec := range res.Records {
		l.LogRecord(rec)
	}
}

// LogRecord logs one execution record
func (l *Logger) LogRecord(rec types.TransactionRecord) {
	l.stats.RecordsEmitted++

	event := log.Info().
		Str("txHash", rec.Hash).
		Uint64("block", rec.BlockNumber).
		Str("target", rec.Target.Hex()).
		Bool("success", rec.Success).
		Str("result", rec.Result.String())

	if url := l.TxURL(rec.Hash); url != "" {
		event = event.Str("explorer", url)
	}
	if rec.Target == (common.Address{}) {
		event = event.Bool("unknownTarget", true)
	}

	event.Msg("Agent execution")
}

// LogSwapPlan logs a swap plan with human readable amounts
func (l *Logger) LogSwapPlan(plan *types.SwapPlan) {
	event := log.Info().
		Str("tokenIn", plan.TokenIn.Symbol).
		Str("tokenOut", plan.TokenOut.Symbol).
		Str("kind", string(plan.Kind)).
		Str("amountIn", swap.FormatUnits(plan.AmountIn, plan.TokenIn.Decimals)).
		Str("expectedOut", swap.FormatUnits(plan.ExpectedOut, plan.TokenOut.Decimals)).
		Str("amountOutMin", swap.FormatUnits(plan.AmountOutMin, plan.TokenOut.Decimals)).
		Str("slippage", plan.Slippage+"%").
		Bool("hasRoute", plan.HasRoute)

	if len(plan.Path) > 0 {
		path := make([]string, 0, len(plan.Path))
		for _, addr := range plan.Path {
			path = append(path, addr.Hex())
		}
		event = event.Strs("path", path)
	}

	if !plan.HasRoute {
		event.Msg("No route for swap")
		return
	}
	event.Msg("Swap plan")
}

// LogStats logs current statistics
func (l *Logger) LogStats() {
	elapsed := time.Since(l.stats.StartTime)

	log.Info().
		Uint64("scans", l.stats.Scans).
		Uint64("rangesScanned", l.stats.RangesScanned).
		Uint64("logsFetched", l.stats.LogsFetched).
		Uint64("recordsEmitted", l.stats.RecordsEmitted).
		Dur("uptime", elapsed).
		Msg("Agent Console Stats")
}

// LogError logs an error
func (l *Logger) LogError(err error, context string) {
	log.Error().
		Err(err).
		Str("context", context).
		Msg("Error occurred")
}

// GetStats returns current statistics
func (l *Logger) GetStats() *Stats {
	return l.stats
}
