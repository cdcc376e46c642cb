package quote

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// PancakeRouter V2 getAmountsOut
// function getAmountsOut(uint256 amountIn, address[] path) view returns (uint256[] amounts)
const routerABI = `[{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}]`

// ContractCaller is the part of the chain client the router needs
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Router quotes swaps against a Uniswap V2 style router
type Router struct {
	client  ContractCaller
	address common.Address
	abi     abi.ABI
}

// NewRouter creates a router quoter
func NewRouter(client ContractCaller, address common.Address) (*Router, error) {
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	return &Router{
		client:  client,
		address: address,
		abi:     parsed,
	}, nil
}

// Address returns the router contract address
func (r *Router) Address() common.Address {
	return r.address
}

// ABI returns the parsed router ABI
func (r *Router) ABI() abi.ABI {
	return r.abi
}

// GetAmountsOut returns the router's amounts along path for amountIn. The
// first element echoes the queried input amount.
func (r *Router) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("invalid swap path: expected at least 2 tokens, got %d", len(path))
	}

	data, err := r.abi.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode getAmountsOut: %w", err)
	}

	msg := ethereum.CallMsg{
		To:   &r.address,
		Data: data,
	}

	result, err := r.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}

	values, err := r.abi.Unpack("getAmountsOut", result)
	if err != nil {
		return nil, fmt.Errorf("invalid getAmountsOut response: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("invalid getAmountsOut response")
	}

	amounts, ok := values[0].([]*big.Int)
	if !ok || len(amounts) != len(path) {
		return nil, fmt.Errorf("invalid getAmountsOut response")
	}

	log.Debug().
		Str("router", r.address.Hex()).
		Str("amountIn", amountIn.String()).
		Str("amountOut", amounts[len(amounts)-1].String()).
		Int("hops", len(path)-1).
		Msg("Router quote")

	return amounts, nil
}
