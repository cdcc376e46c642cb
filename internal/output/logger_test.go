package output

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/agent-console/internal/config"
	"github.com/devlongs/agent-console/internal/history"
	"github.com/devlongs/agent-console/internal/scanner"
	"github.com/devlongs/agent-console/internal/tokens"
	"github.com/devlongs/agent-console/pkg/types"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestTxURL(t *testing.T) {
	l := NewLogger(config.LoggingConfig{Format: "json", Level: "info"}, "https://testnet.bscscan.com/tx/")

	assert.Equal(t, "https://testnet.bscscan.com/tx/0xabc", l.TxURL("0xabc"))
	assert.Empty(t, l.TxURL(history.EmptyHash))
	assert.Empty(t, l.TxURL(""))

	bare := NewLogger(config.LoggingConfig{Format: "json"}, "")
	assert.Empty(t, bare.TxURL("0xabc"))
}

func TestLogScanComplete(t *testing.T) {
	l := NewLogger(config.LoggingConfig{Format: "json", Level: "info"}, "https://explorer/tx")
	buf := captureLogs(t)

	l.LogScanComplete(&scanner.Result{
		TokenID:     big.NewInt(7),
		LatestBlock: 100,
		Ranges:      []types.BlockRange{{FromBlock: 90, ToBlock: 100}, {FromBlock: 80, ToBlock: 89}},
		LogCount:    3,
		Records: []types.TransactionRecord{
			{Hash: "0x01", BlockNumber: 99, Target: common.HexToAddress("0x11"), Success: true, Result: []byte{0xaa}},
			{Hash: history.EmptyHash, Result: []byte{}},
		},
		Duration: time.Second,
	})

	entries := lines(t, buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "History scanned", entries[0]["message"])
	assert.Equal(t, "7", entries[0]["tokenId"])
	assert.Equal(t, "https://explorer/tx/0x01", entries[1]["explorer"])
	assert.Equal(t, "0xaa", entries[1]["result"])
	assert.NotContains(t, entries[2], "explorer")
	assert.Equal(t, true, entries[2]["unknownTarget"])

	stats := l.GetStats()
	assert.Equal(t, uint64(1), stats.Scans)
	assert.Equal(t, uint64(2), stats.RangesScanned)
	assert.Equal(t, uint64(3), stats.LogsFetched)
	assert.Equal(t, uint64(2), stats.RecordsEmitted)
}

func TestLogSwapPlan(t *testing.T) {
	l := NewLogger(config.LoggingConfig{Format: "json", Level: "info"}, "")
	buf := captureLogs(t)

	reg, _ := tokens.Build("")
	usdt, _ := reg.Get("USDT")
	wbnb, _ := reg.Get("WBNB")

	l.LogSwapPlan(&types.SwapPlan{
		TokenIn:      usdt,
		TokenOut:     wbnb,
		Kind:         types.SwapKindRouterSwap,
		Path:         []common.Address{usdt.Address, wbnb.Address},
		AmountIn:     big.NewInt(1_500_000_000_000_000_000),
		ExpectedOut:  big.NewInt(5_000_000_000_000_000),
		AmountOutMin: big.NewInt(4_975_000_000_000_000),
		Slippage:     "0.5",
		HasRoute:     true,
	})
	l.LogSwapPlan(&types.SwapPlan{
		TokenIn:      usdt,
		TokenOut:     wbnb,
		Kind:         types.SwapKindRouterSwap,
		AmountIn:     big.NewInt(1),
		ExpectedOut:  new(big.Int),
		AmountOutMin: new(big.Int),
		Slippage:     "0.5",
	})

	entries := lines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "Swap plan", entries[0]["message"])
	assert.Equal(t, "1.5", entries[0]["amountIn"])
	assert.Equal(t, "0.005", entries[0]["expectedOut"])
	assert.Equal(t, "0.5%", entries[0]["slippage"])
	assert.Len(t, entries[0]["path"], 2)
	assert.Equal(t, "No route for swap", entries[1]["message"])
}
