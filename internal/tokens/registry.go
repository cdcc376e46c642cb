package tokens

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/devlongs/agent-console/pkg/types"
)

// BSC testnet addresses, must match the PolicyGuard allowlist
var (
	WBNBAddress   = common.HexToAddress("0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd")
	USDTAddress   = common.HexToAddress("0x337610d27c682E347C9cD60BD4b3b107C9d34dDd")
	RouterAddress = common.HexToAddress("0xD99D1c33F9fC3444f8101754aBC46c52416550D1") // PancakeRouter V2
)

// Defaults returns the built-in token list: native first, then ERC20s
// alphabetically. BNB uses the WBNB address as its canonical underlying.
func Defaults() []types.TokenDescriptor {
	return []types.TokenDescriptor{
		{Symbol: "BNB", Name: "BNB", Address: WBNBAddress, Decimals: 18, IsNative: true},
		{Symbol: "USDT", Name: "USDT", Address: USDTAddress, Decimals: 18},
		{Symbol: "WBNB", Name: "WBNB", Address: WBNBAddress, Decimals: 18},
	}
}

// ParseExtraTokens parses "SYMBOL:Name:0xAddress:decimals;..." entries.
// Malformed entries are skipped and reported. Extra tokens are never native.
func ParseExtraTokens(raw string) ([]types.TokenDescriptor, []error) {
	var (
		out  []types.TokenDescriptor
		errs []error
	)

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 4 {
			errs = append(errs, fmt.Errorf("malformed extra token entry %q", entry))
			continue
		}

		symbol := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		address := strings.TrimSpace(parts[2])
		decimals, err := strconv.ParseUint(strings.TrimSpace(parts[3]), 10, 8)
		if symbol == "" || name == "" || !common.IsHexAddress(address) || err != nil {
			errs = append(errs, fmt.Errorf("invalid extra token entry %q", entry))
			continue
		}

		out = append(out, types.TokenDescriptor{
			Symbol:   symbol,
			Name:     name,
			Address:  common.HexToAddress(address),
			Decimals: uint8(decimals),
		})
	}

	return out, errs
}

// Build returns the default registry extended with the extra tokens. Extras
// reusing a known symbol are skipped.
func Build(extra string) (*types.TokenRegistry, []error) {
	reg := types.NewTokenRegistry(Defaults()...)

	extras, errs := ParseExtraTokens(extra)
	for _, t := range extras {
		if _, exists := reg.Get(t.Symbol); exists {
			errs = append(errs, fmt.Errorf("duplicate extra token symbol %q", t.Symbol))
			continue
		}
		reg.Add(t)
	}

	return reg, errs
}
