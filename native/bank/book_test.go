package bank

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	gold  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

func TestDepositWithdraw(t *testing.T) {
	book := NewBook()
	if err := book.Deposit(alice, gold, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := book.BalanceOf(alice, gold); got.Int64() != 100 {
		t.Fatalf("balance = %s, want 100", got)
	}
	if err := book.Withdraw(alice, gold, big.NewInt(60)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := book.BalanceOf(alice, gold); got.Int64() != 40 {
		t.Fatalf("balance = %s, want 40", got)
	}
	if err := book.Withdraw(alice, gold, big.NewInt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw: got %v, want ErrInsufficientBalance", err)
	}
}

func TestAmountValidation(t *testing.T) {
	book := NewBook()
	if err := book.Deposit(alice, gold, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil amount: got %v", err)
	}
	if err := book.Deposit(alice, gold, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	book := NewBook()
	if err := book.Deposit(alice, gold, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	if err := book.Transfer(alice, bob, gold, big.NewInt(30)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if book.BalanceOf(alice, gold).Int64() != 70 || book.BalanceOf(bob, gold).Int64() != 30 {
		t.Fatalf("balances after transfer: alice=%s bob=%s", book.BalanceOf(alice, gold), book.BalanceOf(bob, gold))
	}
	if err := book.Transfer(alice, bob, gold, big.NewInt(71)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("over-transfer: got %v", err)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	book := NewBook()
	spender := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	if err := book.Deposit(alice, gold, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}

	if err := book.TransferFrom(spender, alice, bob, gold, big.NewInt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("pull without approval: got %v", err)
	}
	if err := book.Approve(alice, spender, gold, big.NewInt(50)); err != nil {
		t.Fatal(err)
	}
	if err := book.TransferFrom(spender, alice, bob, gold, big.NewInt(30)); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if got := book.Allowance(alice, spender, gold); got.Int64() != 20 {
		t.Fatalf("remaining allowance = %s, want 20", got)
	}
	if err := book.TransferFrom(spender, alice, bob, gold, big.NewInt(21)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("pull over allowance: got %v", err)
	}
	if book.BalanceOf(bob, gold).Int64() != 30 {
		t.Fatalf("bob balance = %s, want 30", book.BalanceOf(bob, gold))
	}
}

func TestSnapshotRestore(t *testing.T) {
	book := NewBook()
	if err := book.Deposit(alice, gold, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	if err := book.Approve(alice, bob, gold, big.NewInt(10)); err != nil {
		t.Fatal(err)
	}

	snapshot := book.Snapshot()
	if err := book.Transfer(alice, bob, gold, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	if err := book.Approve(alice, bob, gold, big.NewInt(0)); err != nil {
		t.Fatal(err)
	}

	book.Restore(snapshot)
	if got := book.BalanceOf(alice, gold); got.Int64() != 100 {
		t.Fatalf("restored balance = %s, want 100", got)
	}
	if got := book.Allowance(alice, bob, gold); got.Int64() != 10 {
		t.Fatalf("restored allowance = %s, want 10", got)
	}
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	book := NewBook()
	if err := book.Deposit(alice, gold, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	balance := book.BalanceOf(alice, gold)
	balance.SetInt64(0)
	if got := book.BalanceOf(alice, gold); got.Int64() != 100 {
		t.Fatalf("internal balance mutated through copy: %s", got)
	}
}
