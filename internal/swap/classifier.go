package swap

import (
	"math/big"

	"github.com/devlongs/agent-console/pkg/types"
)

// GetOutputTokens returns the symbols a given input may be swapped into.
// An unknown input allows every other symbol. Otherwise only tokens that are
// the very same asset (same address, same native flag) are excluded, so a
// native coin and its wrapped form remain valid targets for each other.
func GetOutputTokens(reg *types.TokenRegistry, inputSymbol string) []string {
	symbols := reg.Symbols()
	out := make([]string, 0, len(symbols))

	input, known := reg.Get(inputSymbol)
	for _, symbol := range symbols {
		if symbol == inputSymbol {
			continue
		}
		if !known {
			out = append(out, symbol)
			continue
		}

		output, _ := reg.Get(symbol)
		if output.Address != input.Address || output.IsNative != input.IsNative {
			out = append(out, symbol)
		}
	}

	return out
}

// GetSwapPairFlags classifies the route between two symbols.
//
// IsRouterSwap and IsUnsupportedPair are both set when two symbols describe
// the same asset; callers must check IsUnsupportedPair first.
func GetSwapPairFlags(reg *types.TokenRegistry, tokenIn, tokenOut string) types.SwapPairFlags {
	in, hasIn := reg.Get(tokenIn)
	out, hasOut := reg.Get(tokenOut)

	hasBoth := hasIn && hasOut
	sameUnderlying := hasBoth && in.Address == out.Address
	wrapUnwrap := sameUnderlying && in.IsNative != out.IsNative

	return types.SwapPairFlags{
		IsSameUnderlyingToken: sameUnderlying,
		IsWrapUnwrapPair:      wrapUnwrap,
		IsWrap:                wrapUnwrap && in.IsNative,
		IsUnwrap:              wrapUnwrap && out.IsNative,
		IsRouterSwap:          hasBoth && !wrapUnwrap,
		IsUnsupportedPair:     sameUnderlying && !wrapUnwrap,
	}
}

// ResolveExpectedOut returns the output amount a swap is expected to produce.
//
// Wrap and unwrap are 1:1. Router swaps use quoteData, the router's
// getAmountsOut result, only if it was computed for exactly amountIn; a stale
// or missing quote yields 0, meaning no route.
func ResolveExpectedOut(isWrapUnwrapPair bool, amountIn *big.Int, quoteData []*big.Int) *big.Int {
	if amountIn == nil {
		amountIn = new(big.Int)
	}
	if isWrapUnwrapPair {
		return new(big.Int).Set(amountIn)
	}

	if len(quoteData) > 0 && quoteData[0] != nil && quoteData[0].Cmp(amountIn) == 0 {
		if len(quoteData) > 1 && quoteData[1] != nil {
			return new(big.Int).Set(quoteData[1])
		}
	}
	return new(big.Int)
}
