package dex

import "errors"

var (
	// ErrUnauthorized indicates the caller is not the owner of the resource.
	ErrUnauthorized = errors.New("dex: caller is not the owner")
	// ErrInvalidAddress indicates the zero address was supplied where a
	// concrete connector address was required.
	ErrInvalidAddress = errors.New("dex: invalid connector address")
	// ErrConnectorFound indicates an addition collided with a registered
	// connector address.
	ErrConnectorFound = errors.New("dex: connector already registered")
	// ErrConnectorNotFound indicates the referenced connector address is not
	// registered.
	ErrConnectorNotFound = errors.New("dex: connector not registered")
	// ErrConnectorEnabled indicates an enable call on an already enabled
	// connector.
	ErrConnectorEnabled = errors.New("dex: connector already enabled")
	// ErrConnectorDisabled indicates a disable call on an already disabled
	// connector.
	ErrConnectorDisabled = errors.New("dex: connector already disabled")
	// ErrIdenticalTokens indicates a swap or quote with src == dest.
	ErrIdenticalTokens = errors.New("dex: identical source and destination tokens")
	// ErrMissingValue indicates a native-currency leg without any value.
	ErrMissingValue = errors.New("dex: missing eth value")
	// ErrValueAmountMismatch indicates the attached native value does not
	// equal the declared amount.
	ErrValueAmountMismatch = errors.New("dex: eth value does not match declared amount")
	// ErrInvalidSlippage indicates a slippage tolerance above 100 percent.
	ErrInvalidSlippage = errors.New("dex: slippage must be between 0 and 100 percent")
	// ErrNoRoute indicates the venue has no path for the requested pair.
	ErrNoRoute = errors.New("dex: no route for pair")
)
