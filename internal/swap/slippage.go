package swap

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// BpsDenominator is 100% expressed in basis points
const BpsDenominator = 10_000

// leading decimal literal, the way user-typed percentages are read
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// CalcAmountOutMin applies a slippage tolerance, given as percent text such
// as "0.5", to an expected output amount.
//
// Unparsable or non-finite text means zero tolerance. A non-positive
// expectedOut yields 0. The result never goes below 0.
func CalcAmountOutMin(expectedOut *big.Int, slippagePercentText string) *big.Int {
	if expectedOut == nil || expectedOut.Sign() <= 0 {
		return new(big.Int)
	}

	bps := SlippageBps(slippagePercentText)

	cut := new(big.Int).Mul(expectedOut, bps)
	cut.Quo(cut, big.NewInt(BpsDenominator))

	minOut := new(big.Int).Sub(expectedOut, cut)
	if minOut.Sign() < 0 {
		return new(big.Int)
	}
	return minOut
}

// SlippageBps converts percent text to basis points, rounding half up the
// way a float64 percentage does (1.005 gives 100, not 101)
func SlippageBps(slippagePercentText string) *big.Int {
	bps := math.Floor(parsePercent(slippagePercentText)*100 + 0.5)
	if math.IsInf(bps, 0) || math.IsNaN(bps) {
		return new(big.Int)
	}

	out, _ := new(big.Float).SetFloat64(bps).Int(nil)
	return out
}

func parsePercent(text string) float64 {
	literal := numericPrefix.FindString(strings.TrimLeft(text, " \t\n\r\v\f"))
	if literal == "" {
		return 0
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}
