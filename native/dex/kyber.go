package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/events"
)

// rateUnit is the fixed-point base expected rates are denominated in.
var rateUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// RateProvider is the port a Kyber-family venue exposes: expected conversion
// rates and rate-bounded trades. Rates are 1e18 fixed-point destination
// units per source unit.
type RateProvider interface {
	GetExpectedRate(src, dest common.Address, amount *big.Int) (*big.Int, error)
	Trade(src common.Address, amount *big.Int, dest, recipient common.Address, minRate *big.Int) (*big.Int, error)
}

// KyberConnector adapts a rate-quoting proxy network to the Connector
// interface. Unlike the UniswapV2 family, the proxy understands the native
// sentinel directly and performs its own routing.
type KyberConnector struct {
	*ConnectorState
	proxy RateProvider
}

// NewKyberConnector constructs a disabled connector bound to the proxy.
func NewKyberConnector(name string, owner, addr common.Address, proxy RateProvider, emitter events.Emitter) *KyberConnector {
	return &KyberConnector{
		ConnectorState: NewConnectorState(name, owner, addr, emitter),
		proxy:          proxy,
	}
}

// GetPrice converts the proxy's expected rate into a destination amount for
// the requested source amount.
func (c *KyberConnector) GetPrice(src, dest common.Address, amount *big.Int) (*big.Int, error) {
	if err := checkPair(src, dest); err != nil {
		return nil, err
	}
	rate, err := c.proxy.GetExpectedRate(src, dest, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, err)
	}
	out := new(big.Int).Mul(rate, amount)
	return out.Div(out, rateUnit), nil
}

// SwapTokens trades through the proxy with the minimum conversion rate
// derived from the current expected rate and the slippage tolerance.
func (c *KyberConnector) SwapTokens(src, dest, recipient common.Address, amount *big.Int, slippagePct uint8, value *big.Int) (*big.Int, error) {
	if err := checkPair(src, dest); err != nil {
		return nil, err
	}
	if err := checkValue(src, amount, value); err != nil {
		return nil, err
	}
	if err := checkSlippage(slippagePct); err != nil {
		return nil, err
	}
	rate, err := c.proxy.GetExpectedRate(src, dest, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, err)
	}
	out, err := c.proxy.Trade(src, amount, dest, recipient, minOutput(rate, slippagePct))
	if err != nil {
		return nil, fmt.Errorf("dex: %s trade failed: %w", c.DexName(), err)
	}
	return out, nil
}
