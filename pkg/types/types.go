package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TokenDescriptor represents a fungible asset known to the console.
// A native coin and its wrapped ERC20 share an address and differ in IsNative.
type TokenDescriptor struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
	IsNative bool
}

// TokenRegistry maps symbols to descriptors, preserving insertion order
type TokenRegistry struct {
	symbols []string
	tokens  map[string]TokenDescriptor
}

// NewTokenRegistry creates a registry from the given descriptors
func NewTokenRegistry(tokens ...TokenDescriptor) *TokenRegistry {
	r := &TokenRegistry{tokens: make(map[string]TokenDescriptor, len(tokens))}
	for _, t := range tokens {
		r.Add(t)
	}
	return r
}

// Add inserts a descriptor. A repeated symbol overwrites the previous value
// but keeps its original position.
func (r *TokenRegistry) Add(t TokenDescriptor) {
	if r.tokens == nil {
		r.tokens = make(map[string]TokenDescriptor)
	}
	if _, ok := r.tokens[t.Symbol]; !ok {
		r.symbols = append(r.symbols, t.Symbol)
	}
	r.tokens[t.Symbol] = t
}

// Get looks up a symbol
func (r *TokenRegistry) Get(symbol string) (TokenDescriptor, bool) {
	if r == nil {
		return TokenDescriptor{}, false
	}
	t, ok := r.tokens[symbol]
	return t, ok
}

// Symbols returns all symbols in insertion order
func (r *TokenRegistry) Symbols() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}

// Len returns the number of registered tokens
func (r *TokenRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.symbols)
}

// ExecutionEvent is a decoded AgentNFA Executed log. Any field may be missing.
type ExecutionEvent struct {
	TransactionHash *common.Hash
	BlockNumber     *uint64
	LogIndex        uint
	TokenID         *big.Int
	Caller          *common.Address
	Account         *common.Address
	Target          *common.Address
	Selector        *[4]byte
	Success         *bool
	Result          []byte
}

// TransactionRecord is one normalized entry of an agent's execution history
type TransactionRecord struct {
	Hash        string         `json:"hash"`
	BlockNumber uint64         `json:"blockNumber"`
	Target      common.Address `json:"target"`
	Success     bool           `json:"success"`
	Result      hexutil.Bytes  `json:"result"`
}

// BlockRange is an inclusive block interval for a log query
type BlockRange struct {
	FromBlock uint64 `json:"fromBlock"`
	ToBlock   uint64 `json:"toBlock"`
}

// SwapPairFlags describes how a token pair can be exchanged
type SwapPairFlags struct {
	IsSameUnderlyingToken bool
	IsWrapUnwrapPair      bool
	IsWrap                bool
	IsUnwrap              bool
	IsRouterSwap          bool
	IsUnsupportedPair     bool
}

// SwapKind indicates the execution route of a planned swap
type SwapKind string

const (
	SwapKindWrap        SwapKind = "wrap"        // native -> wrapped
	SwapKindUnwrap      SwapKind = "unwrap"      // wrapped -> native
	SwapKindRouterSwap  SwapKind = "router_swap" // distinct tokens via DEX router
	SwapKindUnsupported SwapKind = "unsupported"
)

// Kind collapses the flags into a single route
func (f SwapPairFlags) Kind() SwapKind {
	switch {
	case f.IsUnsupportedPair:
		return SwapKindUnsupported
	case f.IsWrap:
		return SwapKindWrap
	case f.IsUnwrap:
		return SwapKindUnwrap
	case f.IsRouterSwap:
		return SwapKindRouterSwap
	}
	return SwapKindUnsupported
}

// SwapPlan is the outcome of planning a vault swap
type SwapPlan struct {
	TokenIn      TokenDescriptor
	TokenOut     TokenDescriptor
	Kind         SwapKind
	Flags        SwapPairFlags
	Path         []common.Address // router path, nil unless Kind is router_swap
	AmountIn     *big.Int
	ExpectedOut  *big.Int
	AmountOutMin *big.Int
	Slippage     string
	HasRoute     bool
}
