package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/types"
)

const (
	// TypePortfolioCreated is emitted when the factory instantiates a ledger.
	TypePortfolioCreated = "portfolio.created"
	// TypePortfolioDeleted is emitted when a ledger is removed.
	TypePortfolioDeleted = "portfolio.deleted"
	// TypeAssetAdded is emitted for every direct deposit into a ledger.
	TypeAssetAdded = "portfolio.addAsset"
	// TypeAssetBought is emitted once per executed buy leg.
	TypeAssetBought = "portfolio.buyAsset"
	// TypeAssetWithdrawn is emitted once per executed withdraw leg.
	TypeAssetWithdrawn = "portfolio.withdrawAsset"
)

// PortfolioCreated records a new ledger and its owner.
type PortfolioCreated struct {
	Portfolio common.Address
	Owner     common.Address
	Timestamp int64
}

func (PortfolioCreated) EventType() string { return TypePortfolioCreated }

func (e PortfolioCreated) Event() *types.Event {
	return &types.Event{
		Type: TypePortfolioCreated,
		Attributes: map[string]string{
			"portfolio": e.Portfolio.Hex(),
			"owner":     e.Owner.Hex(),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// PortfolioDeleted records the removal of a ledger.
type PortfolioDeleted struct {
	Portfolio common.Address
	Owner     common.Address
	Timestamp int64
}

func (PortfolioDeleted) EventType() string { return TypePortfolioDeleted }

func (e PortfolioDeleted) Event() *types.Event {
	return &types.Event{
		Type: TypePortfolioDeleted,
		Attributes: map[string]string{
			"portfolio": e.Portfolio.Hex(),
			"owner":     e.Owner.Hex(),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// AssetAdded records a direct deposit credited to a ledger.
type AssetAdded struct {
	Portfolio common.Address
	Asset     common.Address
	Amount    *big.Int
	Timestamp int64
}

func (AssetAdded) EventType() string { return TypeAssetAdded }

func (e AssetAdded) Event() *types.Event {
	return assetEvent(TypeAssetAdded, e.Portfolio, e.Asset, e.Amount, e.Timestamp)
}

// AssetBought records the destination side of an executed buy leg.
type AssetBought struct {
	Portfolio common.Address
	Asset     common.Address
	Amount    *big.Int
	Timestamp int64
}

func (AssetBought) EventType() string { return TypeAssetBought }

func (e AssetBought) Event() *types.Event {
	return assetEvent(TypeAssetBought, e.Portfolio, e.Asset, e.Amount, e.Timestamp)
}

// AssetWithdrawn records the source side of an executed withdraw leg.
type AssetWithdrawn struct {
	Portfolio common.Address
	Asset     common.Address
	Amount    *big.Int
	Timestamp int64
}

func (AssetWithdrawn) EventType() string { return TypeAssetWithdrawn }

func (e AssetWithdrawn) Event() *types.Event {
	return assetEvent(TypeAssetWithdrawn, e.Portfolio, e.Asset, e.Amount, e.Timestamp)
}

func assetEvent(kind string, portfolio, asset common.Address, amount *big.Int, ts int64) *types.Event {
	value := big.NewInt(0)
	if amount != nil {
		value = new(big.Int).Set(amount)
	}
	return &types.Event{
		Type: kind,
		Attributes: map[string]string{
			"portfolio": portfolio.Hex(),
			"asset":     asset.Hex(),
			"amount":    value.String(),
			"timestamp": strconv.FormatInt(ts, 10),
		},
	}
}
