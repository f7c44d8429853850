package portfolio

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/core/events"
	"mosaica/core/types"
)

// ActionKind classifies a ledger mutation in the action log.
type ActionKind string

const (
	ActionAdd      ActionKind = "add"
	ActionBuy      ActionKind = "buy"
	ActionWithdraw ActionKind = "withdraw"
)

// Action is one replayable ledger mutation: a credit (add/buy) or a debit
// (withdraw) of an asset at a point in time.
type Action struct {
	Kind      ActionKind
	Asset     common.Address
	Amount    *big.Int
	Timestamp int64
}

// ActionsFromEvents decodes the portfolio events belonging to one ledger
// into actions, sorted by timestamp. Events of other types or portfolios
// are ignored.
func ActionsFromEvents(portfolio common.Address, evts []*types.Event) ([]Action, error) {
	actions := make([]Action, 0, len(evts))
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		var kind ActionKind
		switch evt.Type {
		case events.TypeAssetAdded:
			kind = ActionAdd
		case events.TypeAssetBought:
			kind = ActionBuy
		case events.TypeAssetWithdrawn:
			kind = ActionWithdraw
		default:
			continue
		}
		if common.HexToAddress(evt.Attribute("portfolio")) != portfolio {
			continue
		}
		amount, ok := new(big.Int).SetString(evt.Attribute("amount"), 10)
		if !ok {
			return nil, fmt.Errorf("portfolio: malformed amount in %s event", evt.Type)
		}
		ts, err := strconv.ParseInt(evt.Attribute("timestamp"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("portfolio: malformed timestamp in %s event: %w", evt.Type, err)
		}
		actions = append(actions, Action{
			Kind:      kind,
			Asset:     common.HexToAddress(evt.Attribute("asset")),
			Amount:    amount,
			Timestamp: ts,
		})
	}
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Timestamp < actions[j].Timestamp
	})
	return actions, nil
}

// PriceSource quotes an asset's reference-currency price at a historical
// instant. Charting layers back it with an external index service.
type PriceSource interface {
	PriceAt(asset common.Address, ts int64) (*big.Rat, error)
}

// ValuePoint is the portfolio's total reference-currency value at one
// instant of the replay.
type ValuePoint struct {
	Timestamp int64
	Value     *big.Rat
}

// ValueSeries replays the action log and values the resulting holdings at
// every mutation instant. Replaying events, rather than weighting current
// balances backwards, correctly accounts for when assets entered and left
// the portfolio.
func ValueSeries(actions []Action, prices PriceSource) ([]ValuePoint, error) {
	holdings := make(map[common.Address]*big.Int)
	order := make([]common.Address, 0)
	series := make([]ValuePoint, 0, len(actions))
	for _, action := range actions {
		held, ok := holdings[action.Asset]
		if !ok {
			held = big.NewInt(0)
			order = append(order, action.Asset)
		}
		switch action.Kind {
		case ActionWithdraw:
			held = new(big.Int).Sub(held, action.Amount)
			if held.Sign() < 0 {
				held = big.NewInt(0)
			}
		default:
			held = new(big.Int).Add(held, action.Amount)
		}
		holdings[action.Asset] = held

		total := new(big.Rat)
		for _, asset := range order {
			amount := holdings[asset]
			if amount.Sign() == 0 {
				continue
			}
			price, err := prices.PriceAt(asset, action.Timestamp)
			if err != nil {
				return nil, err
			}
			total.Add(total, new(big.Rat).Mul(price, new(big.Rat).SetInt(amount)))
		}
		series = append(series, ValuePoint{Timestamp: action.Timestamp, Value: total})
	}
	return series, nil
}
