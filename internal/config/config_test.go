package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/agent-console/internal/tokens"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.RPC.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RPC.RetryDelay)
	assert.Equal(t, uint64(50000), cfg.History.TotalBlocks)
	assert.Equal(t, uint64(5000), cfg.History.ChunkSize)
	assert.Equal(t, 15*time.Second, cfg.History.PollInterval)
	assert.Equal(t, common.Address{}, cfg.History.NFAAddress)
	assert.Equal(t, tokens.RouterAddress, cfg.Swap.RouterAddress)
	assert.Equal(t, "0.5", cfg.Swap.Slippage)
	assert.Equal(t, "https://testnet.bscscan.com/tx", cfg.Explorer.TxBaseURL)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("AGENT_HISTORY_CHUNK_SIZE", "250")
	t.Setenv("AGENT_HISTORY_NFA_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("AGENT_EXPLORER_TX_BASE_URL", "https://bscscan.com/tx/")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(250), cfg.History.ChunkSize)
	assert.Equal(t, common.HexToAddress("0xaa"), cfg.History.NFAAddress)
	assert.Equal(t, "https://bscscan.com/tx", cfg.Explorer.TxBaseURL)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("AGENT_SWAP_SLIPPAGE", "3")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("swap.slippage", "", "")
	flags.Int("history.worker_count", 0, "")
	require.NoError(t, flags.Parse([]string{"--swap.slippage=1.5"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, "1.5", cfg.Swap.Slippage)
	assert.Equal(t, 4, cfg.History.WorkerCount)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("chunk size", func(t *testing.T) {
		t.Setenv("AGENT_HISTORY_CHUNK_SIZE", "0")
		_, err := Load(nil)
		assert.Error(t, err)
	})

	t.Run("address", func(t *testing.T) {
		t.Setenv("AGENT_SWAP_ROUTER_ADDRESS", "pancake")
		_, err := Load(nil)
		assert.Error(t, err)
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("AGENT_RPC_REQUEST_TIMEOUT", "30 seconds")
		_, err := Load(nil)
		assert.ErrorContains(t, err, "rpc.request_timeout")
	})

	t.Run("poll interval flag", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("history.poll_interval", "", "")
		require.NoError(t, flags.Parse([]string{"--history.poll_interval=soon"}))

		_, err := Load(flags)
		assert.ErrorContains(t, err, "history.poll_interval")
	})
}
