package dex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/events"
)

// NativeToken is the sentinel address representing the chain's native coin.
// It is distinct from every token contract and requires value-attachment
// semantics instead of pre-approval transfers.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// IsNative reports whether the address is the native-currency sentinel.
func IsNative(addr common.Address) bool {
	return addr == NativeToken
}

// Connector is the capability interface every venue integration implements.
// GetPrice is a pure quote; SwapTokens executes against the venue and returns
// the destination amount delivered to the recipient.
type Connector interface {
	DexName() string
	Address() common.Address
	Enabled() bool
	GetPrice(src, dest common.Address, amount *big.Int) (*big.Int, error)
	SwapTokens(src, dest, recipient common.Address, amount *big.Int, slippagePct uint8, value *big.Int) (*big.Int, error)
}

// ConnectorState carries the lifecycle shared by every connector family:
// a display name, the owning identity, the connector's own address and the
// strict enabled/disabled toggle. Connectors start disabled.
type ConnectorState struct {
	name    string
	owner   common.Address
	addr    common.Address
	enabled bool
	emitter events.Emitter
}

// NewConnectorState constructs the shared connector state. Passing a nil
// emitter wires a no-op emitter.
func NewConnectorState(name string, owner, addr common.Address, emitter events.Emitter) *ConnectorState {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &ConnectorState{name: name, owner: owner, addr: addr, emitter: emitter}
}

// DexName returns the venue display name.
func (c *ConnectorState) DexName() string { return c.name }

// Address returns the connector's own address.
func (c *ConnectorState) Address() common.Address { return c.addr }

// Owner returns the identity allowed to toggle the connector.
func (c *ConnectorState) Owner() common.Address { return c.owner }

// Enabled reports whether the connector participates in aggregation.
func (c *ConnectorState) Enabled() bool { return c.enabled }

// Enable switches the connector on. The toggle is strict: enabling an
// already enabled connector fails with ErrConnectorEnabled.
func (c *ConnectorState) Enable(caller common.Address) error {
	if caller != c.owner {
		return ErrUnauthorized
	}
	if c.enabled {
		return ErrConnectorEnabled
	}
	c.enabled = true
	c.emitter.Emit(events.ConnectorEnabled{Connector: c.addr})
	return nil
}

// Disable switches the connector off. Disabling an already disabled
// connector fails with ErrConnectorDisabled.
func (c *ConnectorState) Disable(caller common.Address) error {
	if caller != c.owner {
		return ErrUnauthorized
	}
	if !c.enabled {
		return ErrConnectorDisabled
	}
	c.enabled = false
	c.emitter.Emit(events.ConnectorDisabled{Connector: c.addr})
	return nil
}

// checkPair rejects degenerate swap pairs.
func checkPair(src, dest common.Address) error {
	if src == dest {
		return ErrIdenticalTokens
	}
	return nil
}

// checkValue enforces native value-attachment rules for a single leg: a
// native source requires value == amount and a nonzero amount; a token
// source must not carry value.
func checkValue(src common.Address, amount, value *big.Int) error {
	attached := big.NewInt(0)
	if value != nil {
		attached = value
	}
	if IsNative(src) {
		if amount == nil || amount.Sign() == 0 {
			if attached.Sign() == 0 {
				return ErrMissingValue
			}
			return ErrValueAmountMismatch
		}
		if attached.Cmp(amount) != 0 {
			return ErrValueAmountMismatch
		}
		return nil
	}
	if attached.Sign() != 0 {
		return ErrValueAmountMismatch
	}
	return nil
}

// checkSlippage validates the whole-percent tolerance domain.
func checkSlippage(slippagePct uint8) error {
	if slippagePct > 100 {
		return ErrInvalidSlippage
	}
	return nil
}

// minOutput applies the slippage tolerance to a quoted amount.
func minOutput(quote *big.Int, slippagePct uint8) *big.Int {
	if quote == nil {
		return big.NewInt(0)
	}
	keep := new(big.Int).SetUint64(uint64(100 - slippagePct))
	out := new(big.Int).Mul(quote, keep)
	return out.Div(out, big.NewInt(100))
}
