package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// stubConnector is a minimal venue for registry and aggregator tests.
type stubConnector struct {
	*ConnectorState
	price    *big.Int
	quoteErr error
}

func newStubConnector(name string, addr common.Address, price *big.Int) *stubConnector {
	return &stubConnector{
		ConnectorState: NewConnectorState(name, testOwner, addr, nil),
		price:          price,
	}
}

func (c *stubConnector) GetPrice(src, dest common.Address, amount *big.Int) (*big.Int, error) {
	if c.quoteErr != nil {
		return nil, c.quoteErr
	}
	if c.price == nil {
		return nil, nil
	}
	return new(big.Int).Set(c.price), nil
}

func (c *stubConnector) SwapTokens(src, dest, recipient common.Address, amount *big.Int, slippagePct uint8, value *big.Int) (*big.Int, error) {
	return c.GetPrice(src, dest, amount)
}

func TestRegistryAddDuplicate(t *testing.T) {
	registry := NewRegistry(testOwner, nil)
	conn := newStubConnector("v1", common.HexToAddress("0x10"), big.NewInt(1))

	if err := registry.Add(testOwner, conn); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := registry.Add(testOwner, conn); !errors.Is(err, ErrConnectorFound) {
		t.Fatalf("duplicate add: got %v, want ErrConnectorFound", err)
	}
}

func TestRegistryRemoveAbsent(t *testing.T) {
	registry := NewRegistry(testOwner, nil)
	if err := registry.Remove(testOwner, common.HexToAddress("0x10")); !errors.Is(err, ErrConnectorNotFound) {
		t.Fatalf("remove absent: got %v, want ErrConnectorNotFound", err)
	}
}

func TestRegistryRejectsZeroAddress(t *testing.T) {
	registry := NewRegistry(testOwner, nil)
	conn := newStubConnector("v1", common.Address{}, big.NewInt(1))
	if err := registry.Add(testOwner, conn); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("add zero address: got %v, want ErrInvalidAddress", err)
	}
	if err := registry.Remove(testOwner, common.Address{}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("remove zero address: got %v, want ErrInvalidAddress", err)
	}
}

func TestRegistryOwnerGated(t *testing.T) {
	registry := NewRegistry(testOwner, nil)
	conn := newStubConnector("v1", common.HexToAddress("0x10"), big.NewInt(1))
	if err := registry.Add(testOther, conn); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("add by non-owner: got %v, want ErrUnauthorized", err)
	}
	if err := registry.Add(testOwner, conn); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := registry.Remove(testOther, conn.Address()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("remove by non-owner: got %v, want ErrUnauthorized", err)
	}
}

func TestRegistryPreservesInsertionOrder(t *testing.T) {
	registry := NewRegistry(testOwner, nil)
	addrs := []common.Address{
		common.HexToAddress("0x31"),
		common.HexToAddress("0x32"),
		common.HexToAddress("0x33"),
	}
	for _, addr := range addrs {
		if err := registry.Add(testOwner, newStubConnector("v", addr, big.NewInt(1))); err != nil {
			t.Fatalf("add %s: %v", addr.Hex(), err)
		}
	}
	listed := registry.List()
	if len(listed) != 3 {
		t.Fatalf("expected 3 connectors, got %d", len(listed))
	}
	for i, addr := range addrs {
		if listed[i] != addr {
			t.Fatalf("position %d: got %s, want %s", i, listed[i].Hex(), addr.Hex())
		}
	}

	if err := registry.Remove(testOwner, addrs[1]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	listed = registry.List()
	if len(listed) != 2 || listed[0] != addrs[0] || listed[1] != addrs[2] {
		t.Fatalf("unexpected order after removal: %v", listed)
	}
}
