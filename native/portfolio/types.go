package portfolio

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapInstruction is one leg of an atomic batch: swap Amount of SrcToken for
// DestToken through the named connector, tolerating SlippagePct percent of
// quote deviation. Amount is denominated in the source asset's smallest
// unit. In a withdrawal batch, SrcToken == DestToken marks a plain payout
// with no venue call.
type SwapInstruction struct {
	SrcToken    common.Address `json:"srcToken"`
	Connector   common.Address `json:"dexConnectorAddress"`
	DestToken   common.Address `json:"destToken"`
	Amount      *big.Int       `json:"amount"`
	SlippagePct uint8          `json:"slippage"`
}

// Ledger is the per-owner record of asset balances. Balances never go
// negative; AssetIndex lists every asset ever credited, in first-added
// order, and is never pruned even when a balance returns to zero.
type Ledger struct {
	Address    common.Address
	Owner      common.Address
	Balances   map[common.Address]*big.Int
	AssetIndex []common.Address
}

// NewLedger constructs an empty ledger.
func NewLedger(addr, owner common.Address) *Ledger {
	return &Ledger{
		Address:  addr,
		Owner:    owner,
		Balances: make(map[common.Address]*big.Int),
	}
}

// BalanceOf returns a copy of the held balance; zero for unknown assets.
func (l *Ledger) BalanceOf(asset common.Address) *big.Int {
	if l == nil || l.Balances == nil {
		return big.NewInt(0)
	}
	balance, ok := l.Balances[asset]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

// Assets returns a copy of the asset index in first-added order.
func (l *Ledger) Assets() []common.Address {
	if l == nil {
		return nil
	}
	out := make([]common.Address, len(l.AssetIndex))
	copy(out, l.AssetIndex)
	return out
}

// Clone returns a deep copy so the engine can stage mutations and commit
// them atomically.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	clone := NewLedger(l.Address, l.Owner)
	for asset, balance := range l.Balances {
		clone.Balances[asset] = new(big.Int).Set(balance)
	}
	clone.AssetIndex = append([]common.Address(nil), l.AssetIndex...)
	return clone
}

// credit adds to a balance and indexes the asset on first touch.
func (l *Ledger) credit(asset common.Address, amount *big.Int) {
	balance, ok := l.Balances[asset]
	if !ok {
		balance = big.NewInt(0)
		l.AssetIndex = append(l.AssetIndex, asset)
	}
	l.Balances[asset] = new(big.Int).Add(balance, amount)
}

// debit subtracts from a balance; the engine validates sufficiency against a
// pre-batch snapshot before any debit happens.
func (l *Ledger) debit(asset common.Address, amount *big.Int) error {
	balance, ok := l.Balances[asset]
	if !ok || balance.Cmp(amount) < 0 {
		return &InsufficientBalanceError{Asset: asset}
	}
	l.Balances[asset] = new(big.Int).Sub(balance, amount)
	return nil
}
