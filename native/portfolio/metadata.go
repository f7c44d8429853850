package portfolio

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/native/dex"
)

// AssetInfo is the display metadata of an asset: name, ticker symbol and the
// decimal scale of its smallest unit.
type AssetInfo struct {
	Address  common.Address `json:"address"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// AssetInfoSource resolves metadata for a token contract. Implementations
// typically query the contract itself; the cache shields them from repeat
// lookups.
type AssetInfoSource interface {
	AssetInfo(addr common.Address) (AssetInfo, error)
}

// InfoCache memoizes asset metadata per session. It is an injected
// dependency rather than process-global state; the native sentinel is
// preseeded so callers never hit the source for it.
type InfoCache struct {
	mu     sync.Mutex
	source AssetInfoSource
	infos  map[common.Address]AssetInfo
}

// NewInfoCache constructs a cache over the supplied source.
func NewInfoCache(source AssetInfoSource) *InfoCache {
	return &InfoCache{
		source: source,
		infos: map[common.Address]AssetInfo{
			dex.NativeToken: {
				Address:  dex.NativeToken,
				Name:     "Ethereum",
				Symbol:   "ETH",
				Decimals: 18,
			},
		},
	}
}

// Info returns the cached metadata, consulting the source on first use.
func (c *InfoCache) Info(addr common.Address) (AssetInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if info, ok := c.infos[addr]; ok {
		return info, nil
	}
	if c.source == nil {
		return AssetInfo{}, fmt.Errorf("portfolio: no metadata source for asset %s", addr.Hex())
	}
	info, err := c.source.AssetInfo(addr)
	if err != nil {
		return AssetInfo{}, err
	}
	info.Address = addr
	c.infos[addr] = info
	return info, nil
}

// FormatAmount renders a smallest-unit amount as a decimal string using the
// asset's scale. Formatting is a presentation concern: the engines only ever
// see smallest-unit integers.
func FormatAmount(info AssetInfo, amount *big.Int) string {
	if amount == nil {
		amount = big.NewInt(0)
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(info.Decimals)), nil)
	integer, fraction := new(big.Int).QuoRem(amount, divisor, new(big.Int))
	if info.Decimals == 0 {
		return integer.String()
	}
	padded := fmt.Sprintf("%0*s", int(info.Decimals), fraction.String())
	return integer.String() + "." + padded
}

// ParseAmount converts a decimal string into a smallest-unit amount,
// truncating fractional digits beyond the asset's scale.
func ParseAmount(info AssetInfo, text string) (*big.Int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("portfolio: amount required")
	}
	parts := strings.SplitN(trimmed, ".", 2)
	integer := parts[0]
	fraction := ""
	if len(parts) == 2 {
		fraction = parts[1]
	}
	if integer == "" {
		integer = "0"
	}
	if len(fraction) > int(info.Decimals) {
		fraction = fraction[:info.Decimals]
	}
	for len(fraction) < int(info.Decimals) {
		fraction += "0"
	}
	amount, ok := new(big.Int).SetString(integer+fraction, 10)
	if !ok {
		return nil, fmt.Errorf("portfolio: invalid amount %q", text)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("portfolio: invalid amount %q", text)
	}
	return amount, nil
}
