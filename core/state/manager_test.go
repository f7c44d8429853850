package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/native/portfolio"
	"mosaica/storage"
)

var (
	ledgerAddr = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	ownerAddr  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	assetOne   = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	assetTwo   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemDB())
}

func TestPortfolioRoundTripPreservesIndexOrder(t *testing.T) {
	manager := newTestManager()
	ledger := portfolio.NewLedger(ledgerAddr, ownerAddr)
	ledger.Balances[assetTwo] = big.NewInt(500)
	ledger.AssetIndex = append(ledger.AssetIndex, assetTwo)
	ledger.Balances[assetOne] = big.NewInt(0)
	ledger.AssetIndex = append(ledger.AssetIndex, assetOne)

	if err := manager.PortfolioPut(ledger); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, ok, err := manager.PortfolioGet(ledgerAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("ledger missing after put")
	}
	if loaded.Owner != ownerAddr || loaded.Address != ledgerAddr {
		t.Fatalf("identity = %s/%s", loaded.Address.Hex(), loaded.Owner.Hex())
	}
	if len(loaded.AssetIndex) != 2 || loaded.AssetIndex[0] != assetTwo || loaded.AssetIndex[1] != assetOne {
		t.Fatalf("index order lost: %v", loaded.AssetIndex)
	}
	if loaded.BalanceOf(assetTwo).Int64() != 500 {
		t.Fatalf("balance = %s", loaded.BalanceOf(assetTwo))
	}
	// Zero balances survive persistence; the index is never pruned.
	if loaded.BalanceOf(assetOne).Sign() != 0 {
		t.Fatalf("zero balance = %s", loaded.BalanceOf(assetOne))
	}
}

func TestPortfolioGetMissing(t *testing.T) {
	manager := newTestManager()
	_, ok, err := manager.PortfolioGet(ledgerAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("missing ledger reported as present")
	}
}

func TestPortfolioDelete(t *testing.T) {
	manager := newTestManager()
	if err := manager.PortfolioPut(portfolio.NewLedger(ledgerAddr, ownerAddr)); err != nil {
		t.Fatal(err)
	}
	if err := manager.PortfolioDelete(ledgerAddr); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := manager.PortfolioGet(ledgerAddr); ok {
		t.Fatal("ledger present after delete")
	}
}

func TestPortfolioIndexRoundTrip(t *testing.T) {
	manager := newTestManager()
	handles, err := manager.PortfolioIndexGet(ownerAddr)
	if err != nil {
		t.Fatalf("get empty index: %v", err)
	}
	if len(handles) != 0 {
		t.Fatalf("expected empty index, got %v", handles)
	}

	want := []common.Address{ledgerAddr, assetOne}
	if err := manager.PortfolioIndexPut(ownerAddr, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	handles, err = manager.PortfolioIndexGet(ownerAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(handles) != 2 || handles[0] != want[0] || handles[1] != want[1] {
		t.Fatalf("index = %v, want %v", handles, want)
	}
}

func TestPortfolioNonce(t *testing.T) {
	manager := newTestManager()
	nonce, err := manager.PortfolioNonce()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if nonce != 0 {
		t.Fatalf("fresh nonce = %d", nonce)
	}
	if err := manager.SetPortfolioNonce(7); err != nil {
		t.Fatalf("set: %v", err)
	}
	nonce, err = manager.PortfolioNonce()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if nonce != 7 {
		t.Fatalf("nonce = %d, want 7", nonce)
	}
}

func TestConnectorRecordsRoundTrip(t *testing.T) {
	manager := newTestManager()
	records, err := manager.ConnectorsGet()
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %v", records)
	}

	want := []ConnectorRecord{
		{Address: assetOne, Name: "uniswap", Kind: "uniswapv2", Enabled: true},
		{Address: assetTwo, Name: "kyber", Kind: "kyber", Enabled: false},
	}
	if err := manager.ConnectorsPut(want); err != nil {
		t.Fatalf("put: %v", err)
	}
	records, err = manager.ConnectorsGet()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}
