package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func seedAMM(t *testing.T, pairs ...[2]common.Address) *AMM {
	t.Helper()
	amm := NewAMM()
	for _, pair := range pairs {
		if err := amm.AddLiquidity(pair[0], pair[1], big.NewInt(1000), big.NewInt(1000)); err != nil {
			t.Fatalf("seed pool: %v", err)
		}
	}
	return amm
}

func TestAMMAddLiquidityRejectsIdenticalPair(t *testing.T) {
	amm := NewAMM()
	if err := amm.AddLiquidity(tokenA, tokenA, big.NewInt(1), big.NewInt(1)); !errors.Is(err, ErrIdenticalTokens) {
		t.Fatalf("got %v, want ErrIdenticalTokens", err)
	}
}

func TestAMMAddLiquidityRejectsNegativeAmounts(t *testing.T) {
	amm := NewAMM()
	if err := amm.AddLiquidity(tokenA, tokenB, big.NewInt(-1), big.NewInt(1)); !errors.Is(err, errAmountRange) {
		t.Fatalf("got %v, want errAmountRange", err)
	}
}

func TestAMMConstantProductQuote(t *testing.T) {
	amm := seedAMM(t, [2]common.Address{tokenA, tokenB})

	amounts, err := amm.GetAmountsOut(big.NewInt(100), []common.Address{tokenA, tokenB})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 997*100*1000 / (1000*1000 + 997*100) = 90.
	if got := amounts[len(amounts)-1].Int64(); got != 90 {
		t.Fatalf("out = %d, want 90", got)
	}
}

func TestAMMMultiHopQuote(t *testing.T) {
	tokenC := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	amm := seedAMM(t,
		[2]common.Address{tokenA, tokenB},
		[2]common.Address{tokenB, tokenC},
	)

	amounts, err := amm.GetAmountsOut(big.NewInt(100), []common.Address{tokenA, tokenB, tokenC})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(amounts) != 3 {
		t.Fatalf("expected 3 amounts, got %d", len(amounts))
	}
	// First hop yields 90, second hop 997*90*1000/(1000*1000+997*90) = 82.
	if amounts[1].Int64() != 90 || amounts[2].Int64() != 82 {
		t.Fatalf("amounts = %v", amounts)
	}
}

func TestAMMQuoteMissingPool(t *testing.T) {
	amm := NewAMM()
	if _, err := amm.GetAmountsOut(big.NewInt(100), []common.Address{tokenA, tokenB}); !errors.Is(err, errPoolNotFound) {
		t.Fatalf("got %v, want errPoolNotFound", err)
	}
}

func TestAMMSwapShiftsReserves(t *testing.T) {
	amm := seedAMM(t, [2]common.Address{tokenA, tokenB})
	recipient := common.HexToAddress("0x99")

	first, err := amm.SwapExactTokens(big.NewInt(100), big.NewInt(0), []common.Address{tokenA, tokenB}, recipient)
	if err != nil {
		t.Fatalf("first swap: %v", err)
	}
	second, err := amm.SwapExactTokens(big.NewInt(100), big.NewInt(0), []common.Address{tokenA, tokenB}, recipient)
	if err != nil {
		t.Fatalf("second swap: %v", err)
	}
	if second.Cmp(first) >= 0 {
		t.Fatalf("second swap (%s) should clear below first (%s)", second, first)
	}
}

func TestAMMSwapEnforcesMinOut(t *testing.T) {
	amm := seedAMM(t, [2]common.Address{tokenA, tokenB})
	recipient := common.HexToAddress("0x99")

	_, err := amm.SwapExactTokens(big.NewInt(100), big.NewInt(91), []common.Address{tokenA, tokenB}, recipient)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("got %v, want ErrSlippageExceeded", err)
	}
	// A failed swap must not move reserves.
	amounts, err := amm.GetAmountsOut(big.NewInt(100), []common.Address{tokenA, tokenB})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if amounts[1].Int64() != 90 {
		t.Fatalf("reserves moved after failed swap: quote = %s", amounts[1])
	}
}

func TestAMMExpectedRate(t *testing.T) {
	amm := seedAMM(t, [2]common.Address{tokenA, tokenB})

	rate, err := amm.GetExpectedRate(tokenA, tokenB, big.NewInt(100))
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	// 90 out for 100 in = 0.9 fixed point.
	want := new(big.Int).Div(new(big.Int).Mul(big.NewInt(90), rateUnit), big.NewInt(100))
	if rate.Cmp(want) != 0 {
		t.Fatalf("rate = %s, want %s", rate, want)
	}
}

func TestAMMTradeEnforcesMinRate(t *testing.T) {
	amm := seedAMM(t, [2]common.Address{tokenA, tokenB})
	recipient := common.HexToAddress("0x99")

	if _, err := amm.Trade(tokenA, big.NewInt(100), tokenB, recipient, rateUnit); !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("got %v, want ErrSlippageExceeded", err)
	}
	out, err := amm.Trade(tokenA, big.NewInt(100), tokenB, recipient, nil)
	if err != nil {
		t.Fatalf("trade: %v", err)
	}
	if out.Int64() != 90 {
		t.Fatalf("out = %s, want 90", out)
	}
}
