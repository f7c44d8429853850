package portfolio

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnauthorized indicates the caller does not own the portfolio.
	ErrUnauthorized = errors.New("portfolio: caller is not the owner")
	// ErrNotFound indicates the portfolio handle is unknown.
	ErrNotFound = errors.New("portfolio: portfolio not found")
	// ErrNilState indicates the engine was used before wiring a state
	// backend.
	ErrNilState = errors.New("portfolio: state not configured")
	// ErrNilCustody indicates the engine was used before wiring custody.
	ErrNilCustody = errors.New("portfolio: custody book not configured")
	// ErrNilRegistry indicates the engine was used before wiring the venue
	// registry.
	ErrNilRegistry = errors.New("portfolio: connector registry not configured")
	// ErrAmountRequired indicates a zero or nil leg amount.
	ErrAmountRequired = errors.New("portfolio: amount must be positive")
)

// InsufficientBalanceError reports which asset could not cover a debit,
// either in the ledger or in the caller's external custody when funding a
// deposit. The asset is carried structurally so boundary layers can decode
// it without string parsing.
type InsufficientBalanceError struct {
	Asset common.Address
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("portfolio: not enough balance of asset %s", e.Asset.Hex())
}
