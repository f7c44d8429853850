package dex

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	errPoolNotFound = errors.New("dex: no pool for pair")
	errAmountRange  = errors.New("dex: amount out of range")
	// ErrSlippageExceeded indicates the executed output fell below the
	// caller's minimum.
	ErrSlippageExceeded = errors.New("dex: output below minimum")
)

// ammFeeNum/ammFeeDen implement the 0.3% constant-product taker fee.
const (
	ammFeeNum = 997
	ammFeeDen = 1000
)

type pairKey struct {
	a common.Address
	b common.Address
}

func newPairKey(x, y common.Address) pairKey {
	if bytes.Compare(x[:], y[:]) < 0 {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

type pool struct {
	key      pairKey
	reserveA *uint256.Int
	reserveB *uint256.Int
}

func (p *pool) reserves(token common.Address) (in, out *uint256.Int) {
	if token == p.key.a {
		return p.reserveA, p.reserveB
	}
	return p.reserveB, p.reserveA
}

func (p *pool) apply(token common.Address, amountIn, amountOut *uint256.Int) {
	in, out := p.reserves(token)
	in.Add(in, amountIn)
	out.Sub(out, amountOut)
}

// AMM is an in-process constant-product market maker. It implements both the
// Router and RateProvider ports so local deployments and tests can run the
// full quote/swap path without an external venue. Swaps mutate reserves, so
// consecutive legs observe moving prices the way they would on-chain.
type AMM struct {
	mu    sync.Mutex
	pools map[pairKey]*pool
}

// NewAMM returns a market maker with no liquidity.
func NewAMM() *AMM {
	return &AMM{pools: make(map[pairKey]*pool)}
}

// AddLiquidity seeds or tops up the pool for a pair.
func (m *AMM) AddLiquidity(tokenX, tokenY common.Address, amountX, amountY *big.Int) error {
	if tokenX == tokenY {
		return ErrIdenticalTokens
	}
	x, err := toUint256(amountX)
	if err != nil {
		return err
	}
	y, err := toUint256(amountY)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := newPairKey(tokenX, tokenY)
	p, ok := m.pools[key]
	if !ok {
		p = &pool{key: key, reserveA: uint256.NewInt(0), reserveB: uint256.NewInt(0)}
		m.pools[key] = p
	}
	if tokenX == key.a {
		p.reserveA.Add(p.reserveA, x)
		p.reserveB.Add(p.reserveB, y)
	} else {
		p.reserveA.Add(p.reserveA, y)
		p.reserveB.Add(p.reserveB, x)
	}
	return nil
}

// quoteHop prices a single hop without mutating reserves.
func (m *AMM) quoteHop(src, dest common.Address, amountIn *uint256.Int) (*uint256.Int, *pool, error) {
	p, ok := m.pools[newPairKey(src, dest)]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s/%s", errPoolNotFound, src.Hex(), dest.Hex())
	}
	rIn, rOut := p.reserves(src)
	if rIn.IsZero() || rOut.IsZero() {
		return nil, nil, fmt.Errorf("%w: %s/%s", errPoolNotFound, src.Hex(), dest.Hex())
	}
	inWithFee := new(uint256.Int).Mul(amountIn, uint256.NewInt(ammFeeNum))
	numerator := new(uint256.Int).Mul(inWithFee, rOut)
	denominator := new(uint256.Int).Mul(rIn, uint256.NewInt(ammFeeDen))
	denominator.Add(denominator, inWithFee)
	if denominator.IsZero() {
		return uint256.NewInt(0), p, nil
	}
	return numerator.Div(numerator, denominator), p, nil
}

// GetAmountsOut implements the Router port: it quotes every hop along the
// path against current reserves.
func (m *AMM) GetAmountsOut(amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("dex: path needs at least two tokens")
	}
	in, err := toUint256(amountIn)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	amounts := make([]*big.Int, 0, len(path))
	amounts = append(amounts, in.ToBig())
	current := in
	for i := 0; i+1 < len(path); i++ {
		out, _, err := m.quoteHop(path[i], path[i+1], current)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, out.ToBig())
		current = out
	}
	return amounts, nil
}

// SwapExactTokens implements the Router port: it executes every hop,
// shifting reserves, and enforces the caller's minimum output on the final
// hop.
func (m *AMM) SwapExactTokens(amountIn, amountOutMin *big.Int, path []common.Address, recipient common.Address) (*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("dex: path needs at least two tokens")
	}
	in, err := toUint256(amountIn)
	if err != nil {
		return nil, err
	}
	minOut, err := toUint256(amountOutMin)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current := in
	type hop struct {
		p   *pool
		src common.Address
		in  *uint256.Int
		out *uint256.Int
	}
	hops := make([]hop, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		out, p, err := m.quoteHop(path[i], path[i+1], current)
		if err != nil {
			return nil, err
		}
		hops = append(hops, hop{p: p, src: path[i], in: current, out: out})
		current = out
	}
	if current.Lt(minOut) {
		return nil, ErrSlippageExceeded
	}
	for _, h := range hops {
		h.p.apply(h.src, h.in, h.out)
	}
	return current.ToBig(), nil
}

// GetExpectedRate implements the RateProvider port: the 1e18 fixed-point
// rate a direct-pair trade of the given size would clear at.
func (m *AMM) GetExpectedRate(src, dest common.Address, amount *big.Int) (*big.Int, error) {
	in, err := toUint256(amount)
	if err != nil {
		return nil, err
	}
	if in.IsZero() {
		return nil, errAmountRange
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out, _, err := m.quoteHop(src, dest, in)
	if err != nil {
		return nil, err
	}
	rate := new(big.Int).Mul(out.ToBig(), rateUnit)
	return rate.Div(rate, in.ToBig()), nil
}

// Trade implements the RateProvider port: a direct-pair swap bounded by a
// minimum conversion rate.
func (m *AMM) Trade(src common.Address, amount *big.Int, dest, recipient common.Address, minRate *big.Int) (*big.Int, error) {
	in, err := toUint256(amount)
	if err != nil {
		return nil, err
	}
	if in.IsZero() {
		return nil, errAmountRange
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out, p, err := m.quoteHop(src, dest, in)
	if err != nil {
		return nil, err
	}
	if minRate != nil && minRate.Sign() > 0 {
		rate := new(big.Int).Mul(out.ToBig(), rateUnit)
		rate.Div(rate, in.ToBig())
		if rate.Cmp(minRate) < 0 {
			return nil, ErrSlippageExceeded
		}
	}
	p.apply(src, in, out)
	return out.ToBig(), nil
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return uint256.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, errAmountRange
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errAmountRange
	}
	return out, nil
}
