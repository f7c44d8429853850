package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/events"
)

// Router is the port a UniswapV2-family venue exposes: multi-hop quoting and
// exact-input swaps along a token path.
type Router interface {
	GetAmountsOut(amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	SwapExactTokens(amountIn, amountOutMin *big.Int, path []common.Address, recipient common.Address) (*big.Int, error)
}

// UniswapV2Connector adapts a constant-product router (Uniswap V2,
// Sushiswap, ...) to the Connector interface. The native sentinel is mapped
// to the wrapped-native token for routing, and pairs that do not share a
// side with it are routed through it.
type UniswapV2Connector struct {
	*ConnectorState
	router Router
	weth   common.Address
}

// NewUniswapV2Connector constructs a disabled connector bound to the router.
func NewUniswapV2Connector(name string, owner, addr common.Address, router Router, weth common.Address, emitter events.Emitter) *UniswapV2Connector {
	return &UniswapV2Connector{
		ConnectorState: NewConnectorState(name, owner, addr, emitter),
		router:         router,
		weth:           weth,
	}
}

func (c *UniswapV2Connector) path(src, dest common.Address) []common.Address {
	if IsNative(src) {
		src = c.weth
	}
	if IsNative(dest) {
		dest = c.weth
	}
	if src == c.weth || dest == c.weth {
		return []common.Address{src, dest}
	}
	return []common.Address{src, c.weth, dest}
}

// GetPrice quotes the destination amount for an exact source amount. A
// missing pool surfaces as ErrNoRoute so the aggregator can degrade the
// venue to a zero quote.
func (c *UniswapV2Connector) GetPrice(src, dest common.Address, amount *big.Int) (*big.Int, error) {
	if err := checkPair(src, dest); err != nil {
		return nil, err
	}
	amounts, err := c.router.GetAmountsOut(amount, c.path(src, dest))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, err)
	}
	if len(amounts) == 0 {
		return nil, ErrNoRoute
	}
	return new(big.Int).Set(amounts[len(amounts)-1]), nil
}

// SwapTokens executes an exact-input swap and returns the amount delivered
// to the recipient. The minimum acceptable output is the current quote
// reduced by the whole-percent slippage tolerance.
func (c *UniswapV2Connector) SwapTokens(src, dest, recipient common.Address, amount *big.Int, slippagePct uint8, value *big.Int) (*big.Int, error) {
	if err := checkPair(src, dest); err != nil {
		return nil, err
	}
	if err := checkValue(src, amount, value); err != nil {
		return nil, err
	}
	if err := checkSlippage(slippagePct); err != nil {
		return nil, err
	}
	quote, err := c.GetPrice(src, dest, amount)
	if err != nil {
		return nil, err
	}
	out, err := c.router.SwapExactTokens(amount, minOutput(quote, slippagePct), c.path(src, dest), recipient)
	if err != nil {
		return nil, fmt.Errorf("dex: %s swap failed: %w", c.DexName(), err)
	}
	return out, nil
}
