package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/events"
)

var (
	testOwner = common.HexToAddress("0x0000000000000000000000000000000000000aa1")
	testOther = common.HexToAddress("0x0000000000000000000000000000000000000aa2")
)

func TestConnectorStartsDisabled(t *testing.T) {
	state := NewConnectorState("uniswap", testOwner, common.HexToAddress("0x1"), nil)
	if state.Enabled() {
		t.Fatal("new connector should start disabled")
	}
}

func TestConnectorToggleStrict(t *testing.T) {
	recorder := events.NewRecorder()
	state := NewConnectorState("uniswap", testOwner, common.HexToAddress("0x1"), recorder)

	if err := state.Enable(testOwner); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !state.Enabled() {
		t.Fatal("connector should be enabled")
	}
	if err := state.Enable(testOwner); !errors.Is(err, ErrConnectorEnabled) {
		t.Fatalf("double enable: got %v, want ErrConnectorEnabled", err)
	}
	if err := state.Disable(testOwner); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := state.Disable(testOwner); !errors.Is(err, ErrConnectorDisabled) {
		t.Fatalf("double disable: got %v, want ErrConnectorDisabled", err)
	}

	evts := recorder.Events()
	if len(evts) != 2 {
		t.Fatalf("expected 2 lifecycle events, got %d", len(evts))
	}
	if evts[0].Type != events.TypeConnectorEnabled || evts[1].Type != events.TypeConnectorDisabled {
		t.Fatalf("unexpected event sequence: %s, %s", evts[0].Type, evts[1].Type)
	}
}

func TestConnectorToggleUnauthorized(t *testing.T) {
	state := NewConnectorState("uniswap", testOwner, common.HexToAddress("0x1"), nil)
	if err := state.Enable(testOther); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("enable by non-owner: got %v, want ErrUnauthorized", err)
	}
	if err := state.Enable(testOwner); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := state.Disable(testOther); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("disable by non-owner: got %v, want ErrUnauthorized", err)
	}
}

func TestCheckValueNativeRules(t *testing.T) {
	one := big.NewInt(1)
	two := big.NewInt(2)

	if err := checkValue(NativeToken, nil, nil); !errors.Is(err, ErrMissingValue) {
		t.Fatalf("zero amount, zero value: got %v, want ErrMissingValue", err)
	}
	if err := checkValue(NativeToken, big.NewInt(0), one); !errors.Is(err, ErrValueAmountMismatch) {
		t.Fatalf("zero amount, nonzero value: got %v, want ErrValueAmountMismatch", err)
	}
	if err := checkValue(NativeToken, one, two); !errors.Is(err, ErrValueAmountMismatch) {
		t.Fatalf("value != amount: got %v, want ErrValueAmountMismatch", err)
	}
	if err := checkValue(NativeToken, two, two); err != nil {
		t.Fatalf("matching value: %v", err)
	}
	token := common.HexToAddress("0x2")
	if err := checkValue(token, one, one); !errors.Is(err, ErrValueAmountMismatch) {
		t.Fatalf("token leg with value: got %v, want ErrValueAmountMismatch", err)
	}
	if err := checkValue(token, one, nil); err != nil {
		t.Fatalf("token leg without value: %v", err)
	}
}

func TestMinOutput(t *testing.T) {
	cases := []struct {
		quote    int64
		slippage uint8
		want     int64
	}{
		{1000, 0, 1000},
		{1000, 1, 990},
		{1000, 50, 500},
		{1000, 100, 0},
		{99, 10, 89},
	}
	for _, tc := range cases {
		got := minOutput(big.NewInt(tc.quote), tc.slippage)
		if got.Int64() != tc.want {
			t.Errorf("minOutput(%d, %d) = %d, want %d", tc.quote, tc.slippage, got.Int64(), tc.want)
		}
	}
}
