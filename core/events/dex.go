package events

import (
	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/types"
)

const (
	// TypeConnectorAdded is emitted when a connector joins the registry.
	TypeConnectorAdded = "dex.connectorAdded"
	// TypeConnectorRemoved is emitted when a connector leaves the registry.
	TypeConnectorRemoved = "dex.connectorRemoved"
	// TypeConnectorEnabled is emitted when a connector is switched on.
	TypeConnectorEnabled = "dex.connectorEnabled"
	// TypeConnectorDisabled is emitted when a connector is switched off.
	TypeConnectorDisabled = "dex.connectorDisabled"
)

// ConnectorAdded records a registry addition.
type ConnectorAdded struct {
	Connector common.Address
}

func (ConnectorAdded) EventType() string { return TypeConnectorAdded }

func (e ConnectorAdded) Event() *types.Event {
	return connectorEvent(TypeConnectorAdded, e.Connector)
}

// ConnectorRemoved records a registry removal.
type ConnectorRemoved struct {
	Connector common.Address
}

func (ConnectorRemoved) EventType() string { return TypeConnectorRemoved }

func (e ConnectorRemoved) Event() *types.Event {
	return connectorEvent(TypeConnectorRemoved, e.Connector)
}

// ConnectorEnabled records a connector moving into the enabled state.
type ConnectorEnabled struct {
	Connector common.Address
}

func (ConnectorEnabled) EventType() string { return TypeConnectorEnabled }

func (e ConnectorEnabled) Event() *types.Event {
	return connectorEvent(TypeConnectorEnabled, e.Connector)
}

// ConnectorDisabled records a connector moving into the disabled state.
type ConnectorDisabled struct {
	Connector common.Address
}

func (ConnectorDisabled) EventType() string { return TypeConnectorDisabled }

func (e ConnectorDisabled) Event() *types.Event {
	return connectorEvent(TypeConnectorDisabled, e.Connector)
}

func connectorEvent(kind string, connector common.Address) *types.Event {
	return &types.Event{
		Type: kind,
		Attributes: map[string]string{
			"connector": connector.Hex(),
		},
	}
}
