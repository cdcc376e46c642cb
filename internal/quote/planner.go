package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/devlongs/agent-console/internal/swap"
	"github.com/devlongs/agent-console/pkg/types"
)

var (
	ErrUnknownToken    = errors.New("unknown token")
	ErrUnsupportedPair = errors.New("unsupported token pair")
)

// Quoter fetches router amounts for a path
type Quoter interface {
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
}

// PlanRequest describes a swap the user wants to make
type PlanRequest struct {
	TokenIn  string
	TokenOut string
	Amount   string // human readable, in TokenIn units
	Slippage string // percent text
}

// Planner turns swap requests into plans
type Planner struct {
	registry *types.TokenRegistry
	quoter   Quoter
}

// NewPlanner creates a swap planner
func NewPlanner(registry *types.TokenRegistry, quoter Quoter) *Planner {
	return &Planner{
		registry: registry,
		quoter:   quoter,
	}
}

// Plan classifies the pair, quotes router swaps and computes the minimum
// acceptable output. A failed quote is not an error: the plan comes back
// with HasRoute false and a zero expected output.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*types.SwapPlan, error) {
	tokenIn, ok := p.registry.Get(req.TokenIn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, req.TokenIn)
	}
	tokenOut, ok := p.registry.Get(req.TokenOut)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, req.TokenOut)
	}

	flags := swap.GetSwapPairFlags(p.registry, req.TokenIn, req.TokenOut)
	if flags.IsUnsupportedPair {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedPair, req.TokenIn, req.TokenOut)
	}

	amountIn, err := swap.ParseUnits(req.Amount, tokenIn.Decimals)
	if err != nil {
		return nil, err
	}

	plan := &types.SwapPlan{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Kind:     flags.Kind(),
		Flags:    flags,
		AmountIn: amountIn,
		Slippage: req.Slippage,
	}

	var quoteData []*big.Int
	if flags.IsRouterSwap && amountIn.Sign() > 0 {
		plan.Path = []common.Address{tokenIn.Address, tokenOut.Address}
		quoteData, err = p.quoter.GetAmountsOut(ctx, amountIn, plan.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).
				Str("tokenIn", req.TokenIn).
				Str("tokenOut", req.TokenOut).
				Msg("Quote failed, no route")
			quoteData = nil
		}
	}

	plan.ExpectedOut = swap.ResolveExpectedOut(flags.IsWrapUnwrapPair, amountIn, quoteData)
	plan.HasRoute = plan.ExpectedOut.Sign() > 0

	if flags.IsWrapUnwrapPair {
		// 1:1, no slippage
		plan.AmountOutMin = new(big.Int).Set(amountIn)
		plan.Slippage = "0"
	} else {
		plan.AmountOutMin = swap.CalcAmountOutMin(plan.ExpectedOut, req.Slippage)
	}

	return plan, nil
}
