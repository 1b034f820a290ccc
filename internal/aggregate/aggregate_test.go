package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tokenlens/internal/model"
)

type result struct {
	v   interface{}
	err error
}

func jsonResult(t *testing.T, raw string) result {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return result{v: v}
}

func failed(msg string) result {
	return result{err: errors.New(msg)}
}

type fakeMoralis struct {
	metadata    result
	holderStats result
	price       result
	analytics   result
	owners      result
	ownersCalls int
	lastAddress string
}

func (f *fakeMoralis) Metadata(ctx context.Context, address string) (interface{}, error) {
	f.lastAddress = address
	return f.metadata.v, f.metadata.err
}

func (f *fakeMoralis) HolderStats(ctx context.Context, address string) (interface{}, error) {
	return f.holderStats.v, f.holderStats.err
}

func (f *fakeMoralis) Price(ctx context.Context, address string) (interface{}, error) {
	return f.price.v, f.price.err
}

func (f *fakeMoralis) Analytics(ctx context.Context, address string) (interface{}, error) {
	return f.analytics.v, f.analytics.err
}

func (f *fakeMoralis) Owners(ctx context.Context, address string, limit int) (interface{}, error) {
	f.ownersCalls++
	return f.owners.v, f.owners.err
}

type fakeBirdeye struct {
	metadata    result
	market      result
	holders     result
	topTraders  result
	tradeData   result
	lastAddress string
}

func (f *fakeBirdeye) TokenMetadata(ctx context.Context, address string) (interface{}, error) {
	f.lastAddress = address
	return f.metadata.v, f.metadata.err
}

func (f *fakeBirdeye) MarketData(ctx context.Context, address string) (interface{}, error) {
	return f.market.v, f.market.err
}

func (f *fakeBirdeye) Holders(ctx context.Context, address string, limit, offset int) (interface{}, error) {
	return f.holders.v, f.holders.err
}

func (f *fakeBirdeye) TopTraders(ctx context.Context, address, chain string) (interface{}, error) {
	return f.topTraders.v, f.topTraders.err
}

func (f *fakeBirdeye) TradeData(ctx context.Context, address string) (interface{}, error) {
	return f.tradeData.v, f.tradeData.err
}

func TestBscBundleFullData(t *testing.T) {
	m := &fakeMoralis{
		metadata: jsonResult(t, `[{
			"address": "0xabc",
			"name": "Test Token",
			"symbol": "TT",
			"decimals": "18",
			"logo": "https://img/logo.png",
			"total_supply": "2000000000000000000000",
			"circulating_supply": "1000000000000000000000",
			"verified_contract": true,
			"links": {"twitter": "https://x.com/tt"}
		}]`),
		holderStats: jsonResult(t, `{
			"totalHolders": 1234,
			"holderChange": {"24h": {"change": 10, "changePercent": 1.5}},
			"holderSupply": {"top10": {"supplyPercent": 40.5}},
			"holderDistribution": {"whales": 3, "shrimps": 900},
			"holdersByAcquisition": {"swap": 700}
		}`),
		price: jsonResult(t, `{
			"usdPrice": 0.5,
			"24hrPercentChange": "3.456",
			"pairTotalLiquidityUsd": 250000
		}`),
		analytics: jsonResult(t, `{
			"totalBuyers": {"5m": 1, "24h": 100},
			"totalSellers": {"24h": 80},
			"totalBuys": {"24h": 150},
			"totalSells": {"24h": 120},
			"totalBuyVolume": {"24h": 50000},
			"totalSellVolume": {"24h": 40000},
			"totalLiquidityUsd": 250000
		}`),
	}
	b := &fakeBirdeye{
		topTraders: jsonResult(t, `{"items": [{
			"owner": "0xtrader1",
			"tags": ["sniper-bot"],
			"trade": 30,
			"tradeBuy": 20,
			"tradeSell": 10,
			"volume": 12345.67,
			"volumeBuy": 8000,
			"volumeSell": 4345.67
		}]}`),
	}

	bundle, err := New(m, b).FetchBundle(context.Background(), model.ChainBsc, "0xABC")
	if err != nil {
		t.Fatalf("FetchBundle: %v", err)
	}

	ov := bundle.TokenOverview
	if ov.Name != "Test Token" || ov.Symbol != "TT" {
		t.Errorf("overview identity = %q/%q", ov.Name, ov.Symbol)
	}
	if ov.Price != 0.5 {
		t.Errorf("price = %v", ov.Price)
	}
	if ov.PriceChange24h != "3.46%" {
		t.Errorf("priceChange24h = %q", ov.PriceChange24h)
	}
	// 1000 whole tokens at 0.5 USD with no provider market cap
	if ov.MarketCap != 500 {
		t.Errorf("marketCap fallback = %v, want 500", ov.MarketCap)
	}
	if ov.CirculationRatio == nil || *ov.CirculationRatio != 50 {
		t.Errorf("circulationRatio = %v, want 50", ov.CirculationRatio)
	}
	if ov.ExplorerURL == nil || *ov.ExplorerURL != "https://bscscan.com/token/0xabc" {
		t.Errorf("explorerUrl = %v", ov.ExplorerURL)
	}

	hs := bundle.HolderStats
	if hs.TotalHolders == nil || *hs.TotalHolders != 1234 {
		t.Errorf("totalHolders = %v", hs.TotalHolders)
	}
	if hc := hs.HolderChange["24h"]; hc.ChangePercent == nil || *hc.ChangePercent != 1.5 {
		t.Errorf("holderChange 24h = %+v", hc)
	}
	if hs.HolderDistribution["whales"] != 3 {
		t.Errorf("whales = %d", hs.HolderDistribution["whales"])
	}
	if m.ownersCalls != 0 {
		t.Errorf("owners fallback should not run when holder stats succeed")
	}

	if len(bundle.TopTraders) != 1 {
		t.Fatalf("topTraders = %d", len(bundle.TopTraders))
	}
	tr := bundle.TopTraders[0]
	if tr.Address != "0xtrader1" {
		t.Errorf("trader address = %q", tr.Address)
	}
	// BSC keeps provider tags as-is
	if len(tr.Tags) != 1 || tr.Tags[0] != "sniper-bot" {
		t.Errorf("trader tags = %v", tr.Tags)
	}
	if tr.Total.Count == nil || *tr.Total.Count != 30 {
		t.Errorf("trader total count = %v", tr.Total.Count)
	}
	if tr.Buy.AmountUSDFormatted != "$8.00K" {
		t.Errorf("buy volume = %q", tr.Buy.AmountUSDFormatted)
	}

	analytics, ok := bundle.TokenAnalytics.(*model.BscAnalytics)
	if !ok {
		t.Fatalf("analytics type = %T", bundle.TokenAnalytics)
	}
	if v := analytics.TotalBuyers["24h"]; v == nil || *v != 100 {
		t.Errorf("totalBuyers 24h = %v", v)
	}

	if bundle.Metadata.VerifiedContract == nil || !*bundle.Metadata.VerifiedContract {
		t.Errorf("verified_contract = %v", bundle.Metadata.VerifiedContract)
	}
	if link := bundle.Metadata.Links["twitter"]; link == nil || *link != "https://x.com/tt" {
		t.Errorf("links.twitter = %v", link)
	}
}

func TestBscBundlePartialFailure(t *testing.T) {
	m := &fakeMoralis{
		metadata:    jsonResult(t, `[{"name": "Partial", "symbol": "PRT", "decimals": "18", "address": "0xabc"}]`),
		holderStats: failed("holders endpoint down"),
		price:       failed("price endpoint down"),
		analytics:   failed("analytics endpoint down"),
		owners:      failed("owners endpoint down"),
	}
	b := &fakeBirdeye{topTraders: failed("birdeye down")}

	bundle, err := New(m, b).FetchBundle(context.Background(), model.ChainBsc, "0xabc")
	if err != nil {
		t.Fatalf("partial failure should still produce a bundle: %v", err)
	}

	if bundle.TokenOverview.Name != "Partial" {
		t.Errorf("name = %q", bundle.TokenOverview.Name)
	}
	if bundle.TokenOverview.PriceFormatted != "N/A" {
		t.Errorf("priceFormatted = %q", bundle.TokenOverview.PriceFormatted)
	}
	if bundle.TokenOverview.PriceChange24h != "N/A" {
		t.Errorf("priceChange24h = %q", bundle.TokenOverview.PriceChange24h)
	}
	if bundle.TokenOverview.MarketCapFormatted != "$0" {
		t.Errorf("marketCapFormatted = %q", bundle.TokenOverview.MarketCapFormatted)
	}
	if bundle.HolderStats.TotalHolders != nil {
		t.Errorf("totalHolders = %v, want nil", bundle.HolderStats.TotalHolders)
	}
	// keyed structure survives total section failure
	for _, tf := range model.BscHolderChangeTimeframes {
		if _, ok := bundle.HolderStats.HolderChange[tf]; !ok {
			t.Errorf("holderChange missing timeframe %s", tf)
		}
	}
	if len(bundle.TopTraders) != 0 {
		t.Errorf("topTraders = %d, want 0", len(bundle.TopTraders))
	}
	if m.ownersCalls != 1 {
		t.Errorf("owners fallback calls = %d, want 1", m.ownersCalls)
	}
}

func TestBscBundleAllFailed(t *testing.T) {
	m := &fakeMoralis{
		metadata:    failed("down"),
		holderStats: failed("down"),
		price:       failed("down"),
		analytics:   failed("down"),
		owners:      failed("down"),
	}
	b := &fakeBirdeye{topTraders: failed("down")}

	bundle, err := New(m, b).FetchBundle(context.Background(), model.ChainBsc, "0xabc")
	if err == nil || bundle != nil {
		t.Fatalf("all-failed fetch should return nil bundle with error, got %v, %v", bundle, err)
	}
}

func TestBscOwnersFallback(t *testing.T) {
	m := &fakeMoralis{
		metadata:    jsonResult(t, `[{"name": "T", "symbol": "T", "decimals": "18", "address": "0xabc"}]`),
		holderStats: failed("holders endpoint down"),
		price:       failed("down"),
		analytics:   failed("down"),
		owners: jsonResult(t, `{"result": [
			{"address": "0xw1", "percentage_relative_to_total_supply": 12},
			{"owner_address": "0xs1", "percentage_relative_to_total_supply": 2},
			{"address": "0xd1", "percentage_relative_to_total_supply": 0.6},
			{"address": "0xf1", "percentage_relative_to_total_supply": 0.2},
			{"address": "0xo1", "percentage_relative_to_total_supply": 0.06},
			{"address": "0xc1", "percentage_relative_to_total_supply": 0.02},
			{"address": "0xr1", "percentage_relative_to_total_supply": 0.001}
		]}`),
	}
	b := &fakeBirdeye{topTraders: failed("down")}

	bundle, err := New(m, b).FetchBundle(context.Background(), model.ChainBsc, "0xabc")
	if err != nil {
		t.Fatalf("FetchBundle: %v", err)
	}

	d := bundle.HolderStats.HolderDistribution
	want := map[string]int64{"whales": 1, "sharks": 1, "dolphins": 1, "fish": 1, "octopus": 1, "crabs": 1, "shrimps": 1}
	for class, n := range want {
		if d[class] != n {
			t.Errorf("%s = %d, want %d", class, d[class], n)
		}
	}
}

func TestCirculationRatio(t *testing.T) {
	fp := func(f float64) *float64 { return &f }
	cases := []struct {
		name string
		circ *float64
		tot  *float64
		want *int
	}{
		{"half", fp(500), fp(1000), intPtr(50)},
		{"rounds", fp(333), fp(1000), intPtr(33)},
		{"both zero", fp(0), fp(0), intPtr(0)},
		{"zero denominator", fp(100), fp(0), nil},
		{"missing denominator", fp(100), nil, nil},
		{"missing numerator", nil, fp(1000), nil},
	}
	for _, c := range cases {
		got := circulationRatio(c.circ, c.tot)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("%s: got %d, want nil", c.name, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Errorf("%s: got %v, want %d", c.name, got, *c.want)
		}
	}
}

func intPtr(n int) *int { return &n }

func TestFallbackMarketCap(t *testing.T) {
	// 1000 whole tokens (18 decimals) at 0.5 USD
	if mc := fallbackMarketCap("1000000000000000000000", 0.5, 18); mc != 500 {
		t.Errorf("mc = %v, want 500", mc)
	}
	if mc := fallbackMarketCap("1000000000000000000000.75", 0.5, 18); mc != 500 {
		t.Errorf("fractional supply mc = %v, want 500", mc)
	}
	if mc := fallbackMarketCap("not a number", 0.5, 18); mc != 0 {
		t.Errorf("bad supply mc = %v, want 0", mc)
	}
	if mc := fallbackMarketCap("1000", 0.5, -1); mc != 0 {
		t.Errorf("bad decimals mc = %v, want 0", mc)
	}
}
