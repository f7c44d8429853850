package dex

import (
	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/events"
)

// Registry is the owner-controlled set of venue connectors. It is the single
// source of truth for which venues exist; insertion order is preserved and
// drives the tie-break in caller-side quote selection.
type Registry struct {
	owner      common.Address
	emitter    events.Emitter
	connectors map[common.Address]Connector
	order      []common.Address
}

// NewRegistry constructs an empty registry owned by the supplied identity.
func NewRegistry(owner common.Address, emitter events.Emitter) *Registry {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Registry{
		owner:      owner,
		emitter:    emitter,
		connectors: make(map[common.Address]Connector),
	}
}

// Owner returns the identity allowed to mutate the registry.
func (r *Registry) Owner() common.Address { return r.owner }

// Add registers a connector. The zero address is rejected and duplicate
// addresses fail with ErrConnectorFound.
func (r *Registry) Add(caller common.Address, conn Connector) error {
	if caller != r.owner {
		return ErrUnauthorized
	}
	if conn == nil || conn.Address() == (common.Address{}) {
		return ErrInvalidAddress
	}
	addr := conn.Address()
	if _, ok := r.connectors[addr]; ok {
		return ErrConnectorFound
	}
	r.connectors[addr] = conn
	r.order = append(r.order, addr)
	r.emitter.Emit(events.ConnectorAdded{Connector: addr})
	return nil
}

// Remove unregisters a connector address. Absent addresses fail with
// ErrConnectorNotFound.
func (r *Registry) Remove(caller, addr common.Address) error {
	if caller != r.owner {
		return ErrUnauthorized
	}
	if addr == (common.Address{}) {
		return ErrInvalidAddress
	}
	if _, ok := r.connectors[addr]; !ok {
		return ErrConnectorNotFound
	}
	delete(r.connectors, addr)
	for i, existing := range r.order {
		if existing == addr {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.emitter.Emit(events.ConnectorRemoved{Connector: addr})
	return nil
}

// List returns the registered connector addresses in insertion order.
func (r *Registry) List() []common.Address {
	out := make([]common.Address, len(r.order))
	copy(out, r.order)
	return out
}

// Get resolves a connector by address.
func (r *Registry) Get(addr common.Address) (Connector, bool) {
	conn, ok := r.connectors[addr]
	return conn, ok
}

// Connectors returns the registered connectors in insertion order.
func (r *Registry) Connectors() []Connector {
	out := make([]Connector, 0, len(r.order))
	for _, addr := range r.order {
		out = append(out, r.connectors[addr])
	}
	return out
}
