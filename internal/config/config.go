package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/devlongs/agent-console/internal/tokens"
)

// Config holds all configuration for the agent console
type Config struct {
	RPC      RPCConfig
	History  HistoryConfig
	Swap     SwapConfig
	Explorer ExplorerConfig
	Logging  LoggingConfig
}

// RPCConfig holds chain RPC configuration
type RPCConfig struct {
	URL            string
	RetryAttempts  int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

// HistoryConfig holds execution history scan settings
type HistoryConfig struct {
	NFAAddress   common.Address
	DeployBlock  uint64 // never scan below this block
	TotalBlocks  uint64
	ChunkSize    uint64
	WorkerCount  int
	PollInterval time.Duration
}

// SwapConfig holds swap planning settings
type SwapConfig struct {
	RouterAddress common.Address
	Slippage      string // percent, as typed by the user
	ExtraTokens   string // SYMBOL:Name:0xAddress:decimals;...
}

// ExplorerConfig holds block explorer links
type ExplorerConfig struct {
	TxBaseURL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load reads configuration from defaults, config file, environment and the
// given flags, in increasing priority. Flags are bound by their viper key
// ("history.chunk_size"); flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("rpc.url", "https://data-seed-prebsc-1-s1.bnbchain.org:8545")
	v.SetDefault("rpc.retry_attempts", 3)
	v.SetDefault("rpc.retry_delay", "1s")
	v.SetDefault("rpc.request_timeout", "30s")

	v.SetDefault("history.nfa_address", "")
	v.SetDefault("history.deploy_block", 0)
	v.SetDefault("history.total_blocks", 50000)
	v.SetDefault("history.chunk_size", 5000)
	v.SetDefault("history.worker_count", 4)
	v.SetDefault("history.poll_interval", "15s")

	v.SetDefault("swap.router_address", tokens.RouterAddress.Hex())
	v.SetDefault("swap.slippage", "0.5")
	v.SetDefault("swap.extra_tokens", "")

	v.SetDefault("explorer.tx_base_url", "https://testnet.bscscan.com/tx")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Environment variable support
	v.SetEnvPrefix("AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file support
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.agent-console")

	// Read config file (optional)
	_ = v.ReadInConfig()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if strings.Contains(f.Name, ".") && bindErr == nil {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	retryDelay, err := parseDuration("rpc.retry_delay", v.GetString("rpc.retry_delay"))
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDuration("rpc.request_timeout", v.GetString("rpc.request_timeout"))
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("history.poll_interval", v.GetString("history.poll_interval"))
	if err != nil {
		return nil, err
	}

	nfaAddress, err := parseAddress("history.nfa_address", v.GetString("history.nfa_address"))
	if err != nil {
		return nil, err
	}
	routerAddress, err := parseAddress("swap.router_address", v.GetString("swap.router_address"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPC: RPCConfig{
			URL:            v.GetString("rpc.url"),
			RetryAttempts:  v.GetInt("rpc.retry_attempts"),
			RetryDelay:     retryDelay,
			RequestTimeout: requestTimeout,
		},
		History: HistoryConfig{
			NFAAddress:   nfaAddress,
			DeployBlock:  v.GetUint64("history.deploy_block"),
			TotalBlocks:  v.GetUint64("history.total_blocks"),
			ChunkSize:    v.GetUint64("history.chunk_size"),
			WorkerCount:  v.GetInt("history.worker_count"),
			PollInterval: pollInterval,
		},
		Swap: SwapConfig{
			RouterAddress: routerAddress,
			Slippage:      v.GetString("swap.slippage"),
			ExtraTokens:   v.GetString("swap.extra_tokens"),
		},
		Explorer: ExplorerConfig{
			TxBaseURL: strings.TrimSuffix(v.GetString("explorer.tx_base_url"), "/"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if cfg.History.ChunkSize == 0 {
		return nil, fmt.Errorf("history.chunk_size must be at least 1")
	}
	if cfg.RPC.RetryAttempts < 1 {
		cfg.RPC.RetryAttempts = 1
	}
	if cfg.History.WorkerCount < 1 {
		cfg.History.WorkerCount = 1
	}

	return cfg, nil
}

// parseAddress accepts an empty value as the zero address
func parseAddress(key, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, value)
	}
	return common.HexToAddress(value), nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}
