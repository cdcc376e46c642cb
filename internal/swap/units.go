package swap

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not non-negative decimals
var ErrInvalidAmount = errors.New("invalid amount")

// ParseUnits converts a human readable amount ("0.001") into base units for a
// token with the given decimals. Digits beyond the token precision are rounded.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAmount, amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w %q: negative", ErrInvalidAmount, amount)
	}

	return d.Shift(int32(decimals)).Round(0).BigInt(), nil
}

// FormatUnits renders base units as a decimal string
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
