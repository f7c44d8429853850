package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func TestGetPricesEmptyRegistry(t *testing.T) {
	aggregator := NewPriceAggregator(NewRegistry(testOwner, nil))
	quotes := aggregator.GetPrices(tokenA, tokenB, big.NewInt(100))
	if len(quotes) != 0 {
		t.Fatalf("expected no quotes, got %d", len(quotes))
	}
}

func TestGetPricesSkipsDisabled(t *testing.T) {
	registry := NewRegistry(testOwner, nil)
	conn := newStubConnector("v1", common.HexToAddress("0x10"), big.NewInt(42))
	if err := registry.Add(testOwner, conn); err != nil {
		t.Fatalf("add: %v", err)
	}
	aggregator := NewPriceAggregator(registry)

	if quotes := aggregator.GetPrices(tokenA, tokenB, big.NewInt(100)); len(quotes) != 0 {
		t.Fatalf("disabled venue should be skipped, got %d quotes", len(quotes))
	}

	if err := conn.Enable(testOwner); err != nil {
		t.Fatalf("enable: %v", err)
	}
	quotes := aggregator.GetPrices(tokenA, tokenB, big.NewInt(100))
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	if quotes[0].Connector != conn.Address() {
		t.Fatalf("quote names %s, want %s", quotes[0].Connector.Hex(), conn.Address().Hex())
	}
	if quotes[0].Price.Int64() != 42 {
		t.Fatalf("price = %s, want 42", quotes[0].Price)
	}
}

func TestGetPricesCompleteness(t *testing.T) {
	registry := NewRegistry(testOwner, nil)
	healthy := newStubConnector("healthy", common.HexToAddress("0x11"), big.NewInt(10))
	broken := newStubConnector("broken", common.HexToAddress("0x12"), nil)
	broken.quoteErr = errors.New("venue offline")
	dark := newStubConnector("dark", common.HexToAddress("0x13"), big.NewInt(99))

	for _, conn := range []*stubConnector{healthy, broken, dark} {
		if err := registry.Add(testOwner, conn); err != nil {
			t.Fatalf("add %s: %v", conn.DexName(), err)
		}
	}
	if err := healthy.Enable(testOwner); err != nil {
		t.Fatal(err)
	}
	if err := broken.Enable(testOwner); err != nil {
		t.Fatal(err)
	}
	// dark stays disabled.

	quotes := NewPriceAggregator(registry).GetPrices(tokenA, tokenB, big.NewInt(100))
	if len(quotes) != 2 {
		t.Fatalf("expected one quote per enabled venue, got %d", len(quotes))
	}
	if quotes[0].Connector != healthy.Address() || quotes[0].Price.Int64() != 10 {
		t.Fatalf("first quote = (%s, %s)", quotes[0].Connector.Hex(), quotes[0].Price)
	}
	if quotes[1].Connector != broken.Address() || quotes[1].Price.Sign() != 0 {
		t.Fatalf("failing venue must degrade to zero, got (%s, %s)", quotes[1].Connector.Hex(), quotes[1].Price)
	}
}

func TestBestQuote(t *testing.T) {
	v1 := common.HexToAddress("0x21")
	v2 := common.HexToAddress("0x22")
	v3 := common.HexToAddress("0x23")

	if _, ok := BestQuote(nil); ok {
		t.Fatal("empty quote list should yield no best")
	}
	if _, ok := BestQuote([]Quote{{Connector: v1, Price: big.NewInt(0)}}); ok {
		t.Fatal("all-zero quote list should yield no best")
	}

	best, ok := BestQuote([]Quote{
		{Connector: v1, Price: big.NewInt(5)},
		{Connector: v2, Price: big.NewInt(9)},
		{Connector: v3, Price: big.NewInt(9)},
	})
	if !ok {
		t.Fatal("expected a best quote")
	}
	// Ties break toward the earlier registry position.
	if best.Connector != v2 {
		t.Fatalf("best = %s, want %s", best.Connector.Hex(), v2.Hex())
	}
}
