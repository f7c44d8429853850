package portfolio

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/events"
	"mosaica/native/bank"
	"mosaica/native/dex"
)

// EngineState is the persistence boundary the engine mutates through.
type EngineState interface {
	PortfolioGet(addr common.Address) (*Ledger, bool, error)
	PortfolioPut(ledger *Ledger) error
	PortfolioDelete(addr common.Address) error
}

// Engine executes the portfolio operations: direct deposits, atomic buy
// batches and atomic withdraw batches. Ledger and custody mutations are
// staged against clones/snapshots and committed only when every leg of an
// operation succeeds, so a failing batch leaves no observable state change.
type Engine struct {
	state    EngineState
	custody  *bank.Book
	registry *dex.Registry
	emitter  events.Emitter
	nowFn    func() int64
}

// NewEngine creates an engine with a no-op emitter. Callers wire state,
// custody and the venue registry before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the persistence backend.
func (e *Engine) SetState(state EngineState) { e.state = state }

// SetCustody configures the custody book the engine settles against.
func (e *Engine) SetCustody(book *bank.Book) { e.custody = book }

// SetRegistry configures the venue registry used to resolve connectors.
func (e *Engine) SetRegistry(registry *dex.Registry) { e.registry = registry }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the timestamp source, primarily for deterministic
// tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 { return e.nowFn() }

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil && evt != nil {
		e.emitter.Emit(evt)
	}
}

func (e *Engine) guards() error {
	if e.state == nil {
		return ErrNilState
	}
	if e.custody == nil {
		return ErrNilCustody
	}
	return nil
}

func (e *Engine) load(addr common.Address) (*Ledger, error) {
	ledger, ok, err := e.state.PortfolioGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return ledger, nil
}

func (e *Engine) loadOwned(addr, caller common.Address) (*Ledger, error) {
	ledger, err := e.load(addr)
	if err != nil {
		return nil, err
	}
	if ledger.Owner != caller {
		return nil, ErrUnauthorized
	}
	return ledger, nil
}

// mapCustodyErr converts custody shortfalls into the typed ledger error so
// boundary layers see one taxonomy regardless of where funding failed.
func mapCustodyErr(err error, asset common.Address) error {
	if errors.Is(err, bank.ErrInsufficientBalance) || errors.Is(err, bank.ErrInsufficientAllowance) {
		return &InsufficientBalanceError{Asset: asset}
	}
	return err
}

func attachedValue(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return value
}

// AddAsset credits a portfolio with a direct deposit. Native deposits must
// attach a value exactly equal to the amount; token deposits are pulled from
// the caller's custody on the portfolio's allowance.
func (e *Engine) AddAsset(portfolio, caller, asset common.Address, amount, value *big.Int) error {
	if err := e.guards(); err != nil {
		return err
	}
	ledger, err := e.loadOwned(portfolio, caller)
	if err != nil {
		return err
	}
	attached := attachedValue(value)
	if dex.IsNative(asset) {
		if amount == nil || amount.Sign() == 0 {
			if attached.Sign() == 0 {
				return dex.ErrMissingValue
			}
			return dex.ErrValueAmountMismatch
		}
		if attached.Cmp(amount) != 0 {
			return dex.ErrValueAmountMismatch
		}
	} else {
		if amount == nil || amount.Sign() <= 0 {
			return ErrAmountRequired
		}
		if attached.Sign() != 0 {
			return dex.ErrValueAmountMismatch
		}
	}

	snapshot := e.custody.Snapshot()
	if dex.IsNative(asset) {
		if err := e.custody.Transfer(caller, portfolio, asset, amount); err != nil {
			return mapCustodyErr(err, asset)
		}
	} else {
		if err := e.custody.TransferFrom(portfolio, caller, portfolio, asset, amount); err != nil {
			return mapCustodyErr(err, asset)
		}
	}
	work := ledger.Clone()
	work.credit(asset, amount)
	if err := e.state.PortfolioPut(work); err != nil {
		e.custody.Restore(snapshot)
		return err
	}
	e.emit(events.AssetAdded{Portfolio: portfolio, Asset: asset, Amount: amount, Timestamp: e.now()})
	return nil
}

// GetAssetBalance returns the held balance; zero for assets the portfolio
// never touched.
func (e *Engine) GetAssetBalance(portfolio, asset common.Address) (*big.Int, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	ledger, err := e.load(portfolio)
	if err != nil {
		return nil, err
	}
	return ledger.BalanceOf(asset), nil
}

// GetAssetAddresses enumerates every asset ever credited, in first-added
// order.
func (e *Engine) GetAssetAddresses(portfolio common.Address) ([]common.Address, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	ledger, err := e.load(portfolio)
	if err != nil {
		return nil, err
	}
	return ledger.Assets(), nil
}

// validateLeg performs the checks shared by buy and withdraw legs.
func (e *Engine) validateLeg(leg SwapInstruction, allowIdentical bool) (dex.Connector, error) {
	if leg.Amount == nil || leg.Amount.Sign() <= 0 {
		if dex.IsNative(leg.SrcToken) {
			return nil, dex.ErrMissingValue
		}
		return nil, ErrAmountRequired
	}
	if leg.SrcToken == leg.DestToken {
		if allowIdentical {
			return nil, nil
		}
		return nil, dex.ErrIdenticalTokens
	}
	if e.registry == nil {
		return nil, ErrNilRegistry
	}
	conn, ok := e.registry.Get(leg.Connector)
	if !ok {
		return nil, dex.ErrConnectorNotFound
	}
	if !conn.Enabled() {
		return nil, dex.ErrConnectorDisabled
	}
	return conn, nil
}

// BuyAssets executes a swap-in batch. The attached native value must equal
// the sum of native-source amounts across the whole batch; token-source
// totals are validated per asset against the pre-batch balance snapshot
// before any leg executes. The batch is all-or-nothing.
func (e *Engine) BuyAssets(portfolio, caller common.Address, batch []SwapInstruction, value *big.Int) error {
	if err := e.guards(); err != nil {
		return err
	}
	ledger, err := e.loadOwned(portfolio, caller)
	if err != nil {
		return err
	}
	attached := attachedValue(value)

	connectors := make([]dex.Connector, len(batch))
	ethTotal := big.NewInt(0)
	debits := make(map[common.Address]*big.Int)
	for i, leg := range batch {
		conn, err := e.validateLeg(leg, false)
		if err != nil {
			return err
		}
		connectors[i] = conn
		total, ok := debits[leg.SrcToken]
		if !ok {
			total = big.NewInt(0)
		}
		debits[leg.SrcToken] = new(big.Int).Add(total, leg.Amount)
		if dex.IsNative(leg.SrcToken) {
			ethTotal.Add(ethTotal, leg.Amount)
		}
	}
	if ethTotal.Cmp(attached) != 0 {
		return dex.ErrValueAmountMismatch
	}
	for src, total := range debits {
		if dex.IsNative(src) {
			continue
		}
		if ledger.BalanceOf(src).Cmp(total) < 0 {
			return &InsufficientBalanceError{Asset: src}
		}
	}
	if attached.Sign() > 0 && e.custody.BalanceOf(caller, dex.NativeToken).Cmp(attached) < 0 {
		return &InsufficientBalanceError{Asset: dex.NativeToken}
	}

	snapshot := e.custody.Snapshot()
	work := ledger.Clone()
	now := e.now()
	if attached.Sign() > 0 {
		if err := e.custody.Transfer(caller, portfolio, dex.NativeToken, attached); err != nil {
			e.custody.Restore(snapshot)
			return mapCustodyErr(err, dex.NativeToken)
		}
		work.credit(dex.NativeToken, attached)
	}
	staged := make([]events.Event, 0, len(batch))
	for i, leg := range batch {
		var legValue *big.Int
		if dex.IsNative(leg.SrcToken) {
			legValue = leg.Amount
		}
		out, err := connectors[i].SwapTokens(leg.SrcToken, leg.DestToken, portfolio, leg.Amount, leg.SlippagePct, legValue)
		if err != nil {
			e.custody.Restore(snapshot)
			return err
		}
		if err := work.debit(leg.SrcToken, leg.Amount); err != nil {
			e.custody.Restore(snapshot)
			return err
		}
		if err := e.custody.Withdraw(portfolio, leg.SrcToken, leg.Amount); err != nil {
			e.custody.Restore(snapshot)
			return mapCustodyErr(err, leg.SrcToken)
		}
		if err := e.custody.Deposit(portfolio, leg.DestToken, out); err != nil {
			e.custody.Restore(snapshot)
			return err
		}
		work.credit(leg.DestToken, out)
		staged = append(staged, events.AssetBought{Portfolio: portfolio, Asset: leg.DestToken, Amount: out, Timestamp: now})
	}
	if err := e.state.PortfolioPut(work); err != nil {
		e.custody.Restore(snapshot)
		return err
	}
	for _, evt := range staged {
		e.emit(evt)
	}
	return nil
}

// WithdrawAssets executes a swap-out batch. Legs with identical source and
// destination pay the asset straight to the owner; the rest swap through the
// named connector with proceeds sent to the owner and never credited back to
// the ledger. Source totals are validated against the pre-batch snapshot.
func (e *Engine) WithdrawAssets(portfolio, caller common.Address, batch []SwapInstruction) error {
	if err := e.guards(); err != nil {
		return err
	}
	ledger, err := e.loadOwned(portfolio, caller)
	if err != nil {
		return err
	}

	connectors := make([]dex.Connector, len(batch))
	debits := make(map[common.Address]*big.Int)
	for i, leg := range batch {
		conn, err := e.validateLeg(leg, true)
		if err != nil {
			return err
		}
		connectors[i] = conn
		total, ok := debits[leg.SrcToken]
		if !ok {
			total = big.NewInt(0)
		}
		debits[leg.SrcToken] = new(big.Int).Add(total, leg.Amount)
	}
	for src, total := range debits {
		if ledger.BalanceOf(src).Cmp(total) < 0 {
			return &InsufficientBalanceError{Asset: src}
		}
	}

	snapshot := e.custody.Snapshot()
	work := ledger.Clone()
	now := e.now()
	staged := make([]events.Event, 0, len(batch))
	for i, leg := range batch {
		if err := work.debit(leg.SrcToken, leg.Amount); err != nil {
			e.custody.Restore(snapshot)
			return err
		}
		if leg.SrcToken == leg.DestToken {
			if err := e.custody.Transfer(portfolio, ledger.Owner, leg.SrcToken, leg.Amount); err != nil {
				e.custody.Restore(snapshot)
				return mapCustodyErr(err, leg.SrcToken)
			}
		} else {
			var legValue *big.Int
			if dex.IsNative(leg.SrcToken) {
				legValue = leg.Amount
			}
			out, err := connectors[i].SwapTokens(leg.SrcToken, leg.DestToken, ledger.Owner, leg.Amount, leg.SlippagePct, legValue)
			if err != nil {
				e.custody.Restore(snapshot)
				return err
			}
			if err := e.custody.Withdraw(portfolio, leg.SrcToken, leg.Amount); err != nil {
				e.custody.Restore(snapshot)
				return mapCustodyErr(err, leg.SrcToken)
			}
			if err := e.custody.Deposit(ledger.Owner, leg.DestToken, out); err != nil {
				e.custody.Restore(snapshot)
				return err
			}
		}
		staged = append(staged, events.AssetWithdrawn{Portfolio: portfolio, Asset: leg.SrcToken, Amount: leg.Amount, Timestamp: now})
	}
	if err := e.state.PortfolioPut(work); err != nil {
		e.custody.Restore(snapshot)
		return err
	}
	for _, evt := range staged {
		e.emit(evt)
	}
	return nil
}
