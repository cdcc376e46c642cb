package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/devlongs/agent-console/internal/config"
	"github.com/devlongs/agent-console/internal/decoder"
	"github.com/devlongs/agent-console/internal/eth"
	"github.com/devlongs/agent-console/internal/output"
	"github.com/devlongs/agent-console/internal/quote"
	"github.com/devlongs/agent-console/internal/scanner"
	"github.com/devlongs/agent-console/internal/swap"
	"github.com/devlongs/agent-console/internal/tokens"
	"github.com/devlongs/agent-console/pkg/types"
)

// app carries state shared by all subcommands
type app struct {
	cfg      *config.Config
	logger   *output.Logger
	registry *types.TokenRegistry
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agent-console",
		Short:         "Inspect AgentNFA execution history and plan agent swaps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = cfg
			a.logger = output.NewLogger(cfg.Logging, cfg.Explorer.TxBaseURL)

			registry, errs := tokens.Build(cfg.Swap.ExtraTokens)
			for _, err := range errs {
				log.Warn().Err(err).Msg("Skipping extra token")
			}
			a.registry = registry
			return nil
		},
	}

	cmd.PersistentFlags().String("rpc.url", "", "Chain RPC endpoint")
	cmd.PersistentFlags().String("logging.level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("logging.format", "", "Log format (console, json)")

	cmd.AddCommand(newHistoryCommand(a))
	cmd.AddCommand(newWatchCommand(a))
	cmd.AddCommand(newQuoteCommand(a))
	cmd.AddCommand(newTokensCommand(a))

	return cmd
}

func addHistoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("token-id", "", "Agent token id")
	cmd.Flags().String("history.nfa_address", "", "AgentNFA contract address")
	cmd.Flags().Uint64("history.total_blocks", 0, "Number of recent blocks to scan")
	cmd.Flags().Uint64("history.chunk_size", 0, "Blocks per log query")
	cmd.Flags().Int("history.worker_count", 0, "Concurrent log queries")
	_ = cmd.MarkFlagRequired("token-id")
}

func newHistoryCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the recent execution history of an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenID, err := parseTokenID(cmd)
			if err != nil {
				return err
			}

			client, s, err := a.newScanner()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := s.Scan(cmd.Context(), tokenID)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Records)
			}
			a.logger.LogScanComplete(res)
			return nil
		},
	}
	addHistoryFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write records as JSON to stdout")

	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll an agent's history and log new executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenID, err := parseTokenID(cmd)
			if err != nil {
				return err
			}

			client, s, err := a.newScanner()
			if err != nil {
				return err
			}
			defer client.Close()

			w := NewWatcher(s, a.logger, tokenID, a.cfg.History.PollInterval)
			if err := w.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info().Msg("Watcher stopped")
			return nil
		},
	}
	addHistoryFlags(cmd)
	cmd.Flags().Duration("history.poll_interval", 0, "Time between history polls")

	return cmd
}

func newQuoteCommand(a *app) *cobra.Command {
	var tokenIn, tokenOut, amount string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Plan a swap and show the minimum acceptable output",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := eth.NewClient(a.cfg.RPC)
			if err != nil {
				return err
			}
			defer client.Close()

			router, err := quote.NewRouter(client, a.cfg.Swap.RouterAddress)
			if err != nil {
				return err
			}

			log.Debug().
				Str("chainId", client.ChainID().String()).
				Str("router", router.Address().Hex()).
				Msg("Quoting via router")

			planner := quote.NewPlanner(a.registry, router)
			plan, err := planner.Plan(cmd.Context(), quote.PlanRequest{
				TokenIn:  strings.ToUpper(tokenIn),
				TokenOut: strings.ToUpper(tokenOut),
				Amount:   amount,
				Slippage: a.cfg.Swap.Slippage,
			})
			if err != nil {
				return err
			}

			a.logger.LogSwapPlan(plan)
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenIn, "in", "", "Input token symbol")
	cmd.Flags().StringVar(&tokenOut, "out", "", "Output token symbol")
	cmd.Flags().StringVar(&amount, "amount", "", "Input amount in token units")
	cmd.Flags().String("swap.slippage", "", "Slippage tolerance in percent")
	cmd.Flags().String("swap.router_address", "", "Router contract address")
	cmd.Flags().String("swap.extra_tokens", "", "Extra tokens, SYMBOL:Name:0xAddress:decimals;...")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTokensCommand(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "List known tokens, or valid outputs for --in",
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := a.registry.Symbols()
			if input != "" {
				symbols = swap.GetOutputTokens(a.registry, strings.ToUpper(input))
			}

			out := cmd.OutOrStdout()
			for _, symbol := range symbols {
				t, _ := a.registry.Get(symbol)
				kind := "erc20"
				if t.IsNative {
					kind = "native"
				}
				fmt.Fprintf(out, "%-8s %-6s %s %d\n", t.Symbol, kind, t.Address.Hex(), t.Decimals)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "in", "", "Only list valid outputs for this input symbol")
	cmd.Flags().String("swap.extra_tokens", "", "Extra tokens, SYMBOL:Name:0xAddress:decimals;...")

	return cmd
}

func (a *app) newScanner() (*eth.Client, *scanner.Scanner, error) {
	client, err := eth.NewClient(a.cfg.RPC)
	if err != nil {
		return nil, nil, err
	}

	dec, err := decoder.NewDecoder()
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	return client, scanner.NewScanner(client, dec, a.cfg.History), nil
}

func parseTokenID(cmd *cobra.Command) (*big.Int, error) {
	raw, err := cmd.Flags().GetString("token-id")
	if err != nil {
		return nil, err
	}

	tokenID, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || tokenID.Sign() < 0 {
		return nil, fmt.Errorf("invalid token id %q", raw)
	}
	return tokenID, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{}
	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		cancel()
		os.Exit(1)
	}
}
