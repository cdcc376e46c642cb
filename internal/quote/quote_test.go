package quote

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/agent-console/internal/tokens"
	"github.com/devlongs/agent-console/pkg/types"
)

type fakeCaller struct {
	router  *Router
	rate    int64 // output per input unit
	err     error
	lastMsg ethereum.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastMsg = msg
	if f.err != nil {
		return nil, f.err
	}

	method := f.router.ABI().Methods["getAmountsOut"]
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	amountIn := args[0].(*big.Int)
	path := args[1].([]common.Address)

	amounts := []*big.Int{amountIn}
	for i := 1; i < len(path); i++ {
		amounts = append(amounts, new(big.Int).Mul(amounts[i-1], big.NewInt(f.rate)))
	}
	return method.Outputs.Pack(amounts)
}

func newTestRouter(t *testing.T, caller *fakeCaller) *Router {
	t.Helper()
	r, err := NewRouter(caller, tokens.RouterAddress)
	require.NoError(t, err)
	caller.router = r
	return r
}

func TestGetAmountsOut(t *testing.T) {
	caller := &fakeCaller{rate: 300}
	r := newTestRouter(t, caller)

	amounts, err := r.GetAmountsOut(context.Background(), big.NewInt(1000), []common.Address{tokens.WBNBAddress, tokens.USDTAddress})
	require.NoError(t, err)

	assert.Equal(t, tokens.RouterAddress, r.Address())
	require.Len(t, amounts, 2)
	assert.Equal(t, "1000", amounts[0].String())
	assert.Equal(t, "300000", amounts[1].String())
	assert.Equal(t, tokens.RouterAddress, *caller.lastMsg.To)
	assert.Equal(t, r.ABI().Methods["getAmountsOut"].ID, caller.lastMsg.Data[:4])
}

func TestGetAmountsOutErrors(t *testing.T) {
	caller := &fakeCaller{err: errors.New("execution reverted")}
	r := newTestRouter(t, caller)

	_, err := r.GetAmountsOut(context.Background(), big.NewInt(1), []common.Address{tokens.WBNBAddress})
	assert.Error(t, err)

	_, err = r.GetAmountsOut(context.Background(), big.NewInt(1), []common.Address{tokens.WBNBAddress, tokens.USDTAddress})
	assert.ErrorContains(t, err, "execution reverted")
}

type staticQuoter struct {
	amounts []*big.Int
	err     error
	calls   int
}

func (q *staticQuoter) GetAmountsOut(context.Context, *big.Int, []common.Address) ([]*big.Int, error) {
	q.calls++
	return q.amounts, q.err
}

func testRegistry(t *testing.T) *types.TokenRegistry {
	t.Helper()
	reg, errs := tokens.Build("")
	require.Empty(t, errs)
	return reg
}

func TestPlanRouterSwap(t *testing.T) {
	caller := &fakeCaller{rate: 2}
	planner := NewPlanner(testRegistry(t), newTestRouter(t, caller))

	plan, err := planner.Plan(context.Background(), PlanRequest{TokenIn: "USDT", TokenOut: "WBNB", Amount: "0.0001", Slippage: "0.5"})
	require.NoError(t, err)

	assert.Equal(t, types.SwapKindRouterSwap, plan.Kind)
	assert.True(t, plan.HasRoute)
	assert.Equal(t, []common.Address{tokens.USDTAddress, tokens.WBNBAddress}, plan.Path)
	assert.Equal(t, "100000000000000", plan.AmountIn.String())
	assert.Equal(t, "200000000000000", plan.ExpectedOut.String())
	assert.Equal(t, "199000000000000", plan.AmountOutMin.String())
}

func TestPlanWrapAndUnwrap(t *testing.T) {
	quoter := &staticQuoter{}
	planner := NewPlanner(testRegistry(t), quoter)

	wrap, err := planner.Plan(context.Background(), PlanRequest{TokenIn: "BNB", TokenOut: "WBNB", Amount: "1", Slippage: "5"})
	require.NoError(t, err)
	assert.Equal(t, types.SwapKindWrap, wrap.Kind)
	assert.Equal(t, wrap.AmountIn.String(), wrap.ExpectedOut.String())
	assert.Equal(t, wrap.AmountIn.String(), wrap.AmountOutMin.String())
	assert.Nil(t, wrap.Path)

	unwrap, err := planner.Plan(context.Background(), PlanRequest{TokenIn: "WBNB", TokenOut: "BNB", Amount: "1", Slippage: "5"})
	require.NoError(t, err)
	assert.Equal(t, types.SwapKindUnwrap, unwrap.Kind)

	assert.Zero(t, quoter.calls)
}

func TestPlanQuoteFailureMeansNoRoute(t *testing.T) {
	planner := NewPlanner(testRegistry(t), &staticQuoter{err: errors.New("no liquidity")})

	plan, err := planner.Plan(context.Background(), PlanRequest{TokenIn: "BNB", TokenOut: "USDT", Amount: "1", Slippage: "1"})
	require.NoError(t, err)

	assert.False(t, plan.HasRoute)
	assert.Equal(t, "0", plan.ExpectedOut.String())
	assert.Equal(t, "0", plan.AmountOutMin.String())
}

func TestPlanStaleQuoteMeansNoRoute(t *testing.T) {
	quoter := &staticQuoter{amounts: []*big.Int{big.NewInt(1), big.NewInt(500)}}
	planner := NewPlanner(testRegistry(t), quoter)

	plan, err := planner.Plan(context.Background(), PlanRequest{TokenIn: "BNB", TokenOut: "USDT", Amount: "1", Slippage: "1"})
	require.NoError(t, err)

	assert.Equal(t, 1, quoter.calls)
	assert.False(t, plan.HasRoute)
}

func TestPlanRejections(t *testing.T) {
	reg := testRegistry(t)
	reg.Add(types.TokenDescriptor{Symbol: "WBNB2", Address: tokens.WBNBAddress, Decimals: 18})
	planner := NewPlanner(reg, &staticQuoter{})

	_, err := planner.Plan(context.Background(), PlanRequest{TokenIn: "DOGE", TokenOut: "USDT", Amount: "1"})
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, err = planner.Plan(context.Background(), PlanRequest{TokenIn: "USDT", TokenOut: "USDT", Amount: "1"})
	assert.ErrorIs(t, err, ErrUnsupportedPair)

	_, err = planner.Plan(context.Background(), PlanRequest{TokenIn: "WBNB", TokenOut: "WBNB2", Amount: "1"})
	assert.ErrorIs(t, err, ErrUnsupportedPair)

	_, err = planner.Plan(context.Background(), PlanRequest{TokenIn: "USDT", TokenOut: "BNB", Amount: "lots"})
	assert.Error(t, err)
}
