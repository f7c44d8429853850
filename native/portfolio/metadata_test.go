package portfolio

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/native/dex"
)

type mockInfoSource struct {
	infos map[common.Address]AssetInfo
	calls int
}

func (s *mockInfoSource) AssetInfo(addr common.Address) (AssetInfo, error) {
	s.calls++
	info, ok := s.infos[addr]
	if !ok {
		return AssetInfo{}, errors.New("unknown token")
	}
	return info, nil
}

func TestInfoCacheMemoizes(t *testing.T) {
	source := &mockInfoSource{infos: map[common.Address]AssetInfo{
		tokenA: {Name: "Alpha", Symbol: "ALP", Decimals: 6},
	}}
	cache := NewInfoCache(source)

	for i := 0; i < 3; i++ {
		info, err := cache.Info(tokenA)
		if err != nil {
			t.Fatalf("info: %v", err)
		}
		if info.Symbol != "ALP" || info.Address != tokenA {
			t.Fatalf("info = %+v", info)
		}
	}
	if source.calls != 1 {
		t.Fatalf("source consulted %d times, want 1", source.calls)
	}
}

func TestInfoCachePreseedsNative(t *testing.T) {
	source := &mockInfoSource{}
	cache := NewInfoCache(source)
	info, err := cache.Info(dex.NativeToken)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Symbol != "ETH" || info.Decimals != 18 {
		t.Fatalf("native info = %+v", info)
	}
	if source.calls != 0 {
		t.Fatalf("native lookup hit the source %d times", source.calls)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		decimals uint8
		amount   string
		want     string
	}{
		{18, "2000000000000000000", "2.000000000000000000"},
		{18, "1500000000000000000", "1.500000000000000000"},
		{6, "1000001", "1.000001"},
		{6, "1", "0.000001"},
		{0, "42", "42"},
	}
	for _, tc := range cases {
		amount, _ := new(big.Int).SetString(tc.amount, 10)
		got := FormatAmount(AssetInfo{Decimals: tc.decimals}, amount)
		if got != tc.want {
			t.Errorf("FormatAmount(%s, %d) = %s, want %s", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		decimals uint8
		text     string
		want     string
	}{
		{18, "2", "2000000000000000000"},
		{18, "1.5", "1500000000000000000"},
		{6, "0.000001", "1"},
		{6, "1.0000019", "1000001"},
		{0, "42", "42"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(AssetInfo{Decimals: tc.decimals}, tc.text)
		if err != nil {
			t.Errorf("ParseAmount(%q, %d): %v", tc.text, tc.decimals, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("ParseAmount(%q, %d) = %s, want %s", tc.text, tc.decimals, got, tc.want)
		}
	}

	if _, err := ParseAmount(AssetInfo{Decimals: 6}, ""); err == nil {
		t.Error("empty amount should fail")
	}
	if _, err := ParseAmount(AssetInfo{Decimals: 6}, "abc"); err == nil {
		t.Error("non-numeric amount should fail")
	}
	if _, err := ParseAmount(AssetInfo{Decimals: 6}, "-1"); err == nil {
		t.Error("negative amount should fail")
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	info := AssetInfo{Decimals: 18}
	amount := big.NewInt(1234567890123456789)
	parsed, err := ParseAmount(info, FormatAmount(info, amount))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if parsed.Cmp(amount) != 0 {
		t.Fatalf("round trip = %s, want %s", parsed, amount)
	}
}
