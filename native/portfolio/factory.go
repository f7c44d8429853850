package portfolio

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"mosaica/core/events"
	"mosaica/native/bank"
	"mosaica/native/dex"
)

// FactoryState extends the engine's persistence boundary with the per-owner
// portfolio index and the handle-derivation nonce.
type FactoryState interface {
	EngineState
	PortfolioIndexGet(owner common.Address) ([]common.Address, error)
	PortfolioIndexPut(owner common.Address, portfolios []common.Address) error
	PortfolioNonce() (uint64, error)
	SetPortfolioNonce(nonce uint64) error
}

// Factory creates and deletes portfolio ledgers. Creation and initial
// funding are one atomic operation: the ledger only persists when the whole
// seed batch executed.
type Factory struct {
	addr    common.Address
	state   FactoryState
	engine  *Engine
	custody *bank.Book
	emitter events.Emitter
	nowFn   func() int64
}

// NewFactory constructs a factory bound to the supplied engine. The factory
// address is the custody identity owners approve token pulls against when
// seeding a new portfolio.
func NewFactory(addr common.Address, engine *Engine) *Factory {
	return &Factory{
		addr:    addr,
		engine:  engine,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// Address returns the factory's custody identity.
func (f *Factory) Address() common.Address { return f.addr }

// SetState configures the persistence backend.
func (f *Factory) SetState(state FactoryState) { f.state = state }

// SetCustody configures the custody book used for seed pulls.
func (f *Factory) SetCustody(book *bank.Book) { f.custody = book }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (f *Factory) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// SetNowFunc overrides the timestamp source, primarily for tests.
func (f *Factory) SetNowFunc(now func() int64) {
	if now == nil {
		f.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	f.nowFn = now
}

func (f *Factory) guards() error {
	if f.state == nil {
		return ErrNilState
	}
	if f.custody == nil {
		return ErrNilCustody
	}
	if f.engine == nil {
		return ErrNilState
	}
	return nil
}

// deriveHandle computes a deterministic portfolio address from the owner and
// the factory nonce.
func deriveHandle(owner common.Address, nonce uint64) common.Address {
	payload := make([]byte, 0, common.AddressLength+8)
	payload = append(payload, owner.Bytes()...)
	payload = binary.BigEndian.AppendUint64(payload, nonce)
	return common.BytesToAddress(ethcrypto.Keccak256(payload)[12:])
}

// CreatePortfolio instantiates an empty ledger for the owner and immediately
// executes the seed batch against it. Token-source legs are funded by
// pulling the per-asset totals from the owner's custody on the factory's
// allowance; native-source legs are funded by the attached value. Any
// failure rolls the whole creation back.
func (f *Factory) CreatePortfolio(owner common.Address, batch []SwapInstruction, value *big.Int) (common.Address, error) {
	if err := f.guards(); err != nil {
		return common.Address{}, err
	}
	nonce, err := f.state.PortfolioNonce()
	if err != nil {
		return common.Address{}, err
	}
	handle := deriveHandle(owner, nonce)
	ledger := NewLedger(handle, owner)
	if err := f.state.PortfolioPut(ledger); err != nil {
		return common.Address{}, err
	}
	if err := f.state.SetPortfolioNonce(nonce + 1); err != nil {
		_ = f.state.PortfolioDelete(handle)
		return common.Address{}, err
	}

	snapshot := f.custody.Snapshot()
	abort := func(cause error) (common.Address, error) {
		f.custody.Restore(snapshot)
		_ = f.state.PortfolioDelete(handle)
		return common.Address{}, cause
	}

	// Seed token sources so the batch's pre-snapshot balance checks hold
	// on the fresh ledger.
	seeded := NewLedger(handle, owner)
	totals := make(map[common.Address]*big.Int)
	order := make([]common.Address, 0)
	for _, leg := range batch {
		if dex.IsNative(leg.SrcToken) || leg.Amount == nil || leg.Amount.Sign() <= 0 {
			continue
		}
		total, ok := totals[leg.SrcToken]
		if !ok {
			total = big.NewInt(0)
			order = append(order, leg.SrcToken)
		}
		totals[leg.SrcToken] = new(big.Int).Add(total, leg.Amount)
	}
	for _, src := range order {
		if err := f.custody.TransferFrom(f.addr, owner, handle, src, totals[src]); err != nil {
			return abort(mapCustodyErr(err, src))
		}
		seeded.credit(src, totals[src])
	}
	if len(order) > 0 {
		if err := f.state.PortfolioPut(seeded); err != nil {
			return abort(err)
		}
	}

	if len(batch) > 0 {
		if err := f.engine.BuyAssets(handle, owner, batch, value); err != nil {
			return abort(err)
		}
	} else if attached := attachedValue(value); attached.Sign() != 0 {
		return abort(dex.ErrValueAmountMismatch)
	}

	index, err := f.state.PortfolioIndexGet(owner)
	if err != nil {
		return abort(err)
	}
	if err := f.state.PortfolioIndexPut(owner, append(index, handle)); err != nil {
		return abort(err)
	}
	f.emitter.Emit(events.PortfolioCreated{Portfolio: handle, Owner: owner, Timestamp: f.nowFn()})
	return handle, nil
}

// GetPortfolios lists the owner's portfolio handles in creation order.
func (f *Factory) GetPortfolios(owner common.Address) ([]common.Address, error) {
	if f.state == nil {
		return nil, ErrNilState
	}
	return f.state.PortfolioIndexGet(owner)
}

// DeletePortfolio removes a ledger. Owner-only; callers are expected to
// withdraw holdings first, the factory performs no automatic payout.
func (f *Factory) DeletePortfolio(caller, handle common.Address) error {
	if f.state == nil {
		return ErrNilState
	}
	ledger, ok, err := f.state.PortfolioGet(handle)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if ledger.Owner != caller {
		return ErrUnauthorized
	}
	if err := f.state.PortfolioDelete(handle); err != nil {
		return err
	}
	index, err := f.state.PortfolioIndexGet(ledger.Owner)
	if err != nil {
		return err
	}
	filtered := make([]common.Address, 0, len(index))
	for _, existing := range index {
		if existing != handle {
			filtered = append(filtered, existing)
		}
	}
	if err := f.state.PortfolioIndexPut(ledger.Owner, filtered); err != nil {
		return err
	}
	f.emitter.Emit(events.PortfolioDeleted{Portfolio: handle, Owner: ledger.Owner, Timestamp: f.nowFn()})
	return nil
}
