package bank

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientBalance indicates an account does not hold the debited
	// amount of an asset.
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	// ErrInsufficientAllowance indicates a pull exceeds the approved amount.
	ErrInsufficientAllowance = errors.New("bank: insufficient allowance")
	// ErrInvalidAmount indicates a nil or negative amount.
	ErrInvalidAmount = errors.New("bank: amount must not be negative")
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
	asset   common.Address
}

// Book is the custody view of the execution substrate: per-account balances
// of the native coin and every token, plus pull approvals. The portfolio
// engine settles against it when deposits are pulled in and withdrawals are
// paid out.
type Book struct {
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
}

// NewBook returns an empty custody book.
func NewBook() *Book {
	return &Book{
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

func checkAmount(amount *big.Int) (*big.Int, error) {
	if amount == nil {
		return nil, ErrInvalidAmount
	}
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return amount, nil
}

// BalanceOf returns a copy of the account's balance for the asset; zero for
// accounts or assets the book has never seen.
func (b *Book) BalanceOf(account, asset common.Address) *big.Int {
	assets, ok := b.balances[account]
	if !ok {
		return big.NewInt(0)
	}
	balance, ok := assets[asset]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

// Deposit credits an account.
func (b *Book) Deposit(account, asset common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	assets, ok := b.balances[account]
	if !ok {
		assets = make(map[common.Address]*big.Int)
		b.balances[account] = assets
	}
	balance, ok := assets[asset]
	if !ok {
		balance = big.NewInt(0)
	}
	assets[asset] = new(big.Int).Add(balance, amt)
	return nil
}

// Withdraw debits an account, failing with ErrInsufficientBalance when the
// held amount is smaller than the debit.
func (b *Book) Withdraw(account, asset common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	assets, ok := b.balances[account]
	if !ok {
		if amt.Sign() == 0 {
			return nil
		}
		return ErrInsufficientBalance
	}
	balance, ok := assets[asset]
	if !ok || balance.Cmp(amt) < 0 {
		if amt.Sign() == 0 {
			return nil
		}
		return ErrInsufficientBalance
	}
	assets[asset] = new(big.Int).Sub(balance, amt)
	return nil
}

// Transfer moves value between accounts.
func (b *Book) Transfer(from, to, asset common.Address, amount *big.Int) error {
	if err := b.Withdraw(from, asset, amount); err != nil {
		return err
	}
	return b.Deposit(to, asset, amount)
}

// Approve grants the spender a pull allowance over the owner's asset,
// replacing any previous allowance.
func (b *Book) Approve(owner, spender, asset common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	b.allowances[allowanceKey{owner: owner, spender: spender, asset: asset}] = new(big.Int).Set(amt)
	return nil
}

// Allowance returns a copy of the remaining pull allowance.
func (b *Book) Allowance(owner, spender, asset common.Address) *big.Int {
	allowance, ok := b.allowances[allowanceKey{owner: owner, spender: spender, asset: asset}]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(allowance)
}

// TransferFrom pulls value from the owner to the recipient on the spender's
// authority, consuming allowance.
func (b *Book) TransferFrom(spender, from, to, asset common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	key := allowanceKey{owner: from, spender: spender, asset: asset}
	allowance, ok := b.allowances[key]
	if !ok || allowance.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := b.Transfer(from, to, asset, amt); err != nil {
		return err
	}
	b.allowances[key] = new(big.Int).Sub(allowance, amt)
	return nil
}

// Snapshot returns a deep copy of the book. The portfolio engine snapshots
// custody before executing a batch and restores it when any leg fails, so
// partial execution is never observable.
func (b *Book) Snapshot() *Book {
	clone := NewBook()
	for account, assets := range b.balances {
		cloned := make(map[common.Address]*big.Int, len(assets))
		for asset, balance := range assets {
			cloned[asset] = new(big.Int).Set(balance)
		}
		clone.balances[account] = cloned
	}
	for key, allowance := range b.allowances {
		clone.allowances[key] = new(big.Int).Set(allowance)
	}
	return clone
}

// Restore replaces the book's contents with a previously taken snapshot.
func (b *Book) Restore(snapshot *Book) {
	if snapshot == nil {
		return
	}
	b.balances = snapshot.balances
	b.allowances = snapshot.allowances
}
