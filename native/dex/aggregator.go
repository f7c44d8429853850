package dex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Quote pairs a connector with the destination amount it offered for the
// requested source amount. A zero price means the venue was tried but had no
// liquidity or failed; callers filter those before selection.
type Quote struct {
	Connector common.Address
	Price     *big.Int
}

// PriceAggregator fans a price query out to every enabled connector in the
// registry. It performs no sorting or selection: different callers apply
// different policies over the raw quote list.
type PriceAggregator struct {
	registry *Registry
}

// NewPriceAggregator binds an aggregator to a registry.
func NewPriceAggregator(registry *Registry) *PriceAggregator {
	return &PriceAggregator{registry: registry}
}

// GetPrices returns exactly one quote per enabled connector, in registry
// order. Disabled connectors are skipped entirely. An individual venue's
// failing or empty quote degrades to a zero price for that venue only; it
// never aborts the aggregation.
func (a *PriceAggregator) GetPrices(src, dest common.Address, amount *big.Int) []Quote {
	quotes := make([]Quote, 0)
	for _, conn := range a.registry.Connectors() {
		if !conn.Enabled() {
			continue
		}
		price, err := conn.GetPrice(src, dest, amount)
		if err != nil || price == nil {
			price = big.NewInt(0)
		}
		quotes = append(quotes, Quote{Connector: conn.Address(), Price: new(big.Int).Set(price)})
	}
	return quotes
}

// BestQuote selects the highest nonzero price from a quote list, preserving
// the aggregator's registry-order tie-break (first registered wins). The
// second return is false when no venue offered liquidity.
func BestQuote(quotes []Quote) (Quote, bool) {
	best := Quote{}
	found := false
	for _, q := range quotes {
		if q.Price == nil || q.Price.Sign() == 0 {
			continue
		}
		if !found || q.Price.Cmp(best.Price) > 0 {
			best = q
			found = true
		}
	}
	return best, found
}
