package model

// TokenAnalytics is the chain-specific trading analytics section. BSC and
// Solana keep their own timeframe buckets because the upstream providers
// expose different windows; collapsing them would lose information.
type TokenAnalytics interface {
	AnalyticsChain() string
	CloneAnalytics() TokenAnalytics
}

// BscTimeframes are the calendar windows Moralis reports for BSC tokens.
var BscTimeframes = []string{"5m", "1h", "6h", "24h"}

// BscHolderChangeTimeframes are the windows reported by the holders endpoint.
var BscHolderChangeTimeframes = []string{"5min", "1h", "6h", "24h", "3d", "7d", "30d"}

// SolanaTimeframes are the intraday windows Birdeye reports for Solana tokens.
var SolanaTimeframes = []string{"30m", "1h", "2h", "4h", "8h", "24h"}

// HolderSupplyCohorts are the concentration cohorts in both chains' stats.
var HolderSupplyCohorts = []string{"top10", "top25", "top50", "top100"}

// BscAnalytics mirrors the Moralis token analytics response, keyed by
// timeframe. Values are nil when the provider omits a window.
type BscAnalytics struct {
	TotalBuyers                map[string]*float64 `json:"totalBuyers"`
	TotalSellers               map[string]*float64 `json:"totalSellers"`
	TotalBuys                  map[string]*float64 `json:"totalBuys"`
	TotalSells                 map[string]*float64 `json:"totalSells"`
	TotalBuyVolume             map[string]*float64 `json:"totalBuyVolume"`
	TotalSellVolume            map[string]*float64 `json:"totalSellVolume"`
	TotalLiquidityUsd          *float64            `json:"totalLiquidityUsd"`
	TotalFullyDilutedValuation *float64            `json:"totalFullyDilutedValuation"`
}

func (a *BscAnalytics) AnalyticsChain() string { return ChainBsc }

func (a *BscAnalytics) CloneAnalytics() TokenAnalytics {
	if a == nil {
		return nil
	}
	out := &BscAnalytics{
		TotalBuyers:                cloneFloatMap(a.TotalBuyers),
		TotalSellers:               cloneFloatMap(a.TotalSellers),
		TotalBuys:                  cloneFloatMap(a.TotalBuys),
		TotalSells:                 cloneFloatMap(a.TotalSells),
		TotalBuyVolume:             cloneFloatMap(a.TotalBuyVolume),
		TotalSellVolume:            cloneFloatMap(a.TotalSellVolume),
		TotalLiquidityUsd:          clonePtr(a.TotalLiquidityUsd),
		TotalFullyDilutedValuation: clonePtr(a.TotalFullyDilutedValuation),
	}
	return out
}

// SolanaAnalytics carries the nine metric families derived from the Birdeye
// trade data, each keyed by the six Solana timeframes. All values are
// already formatted display strings with "N/A" or "0" fallbacks.
type SolanaAnalytics struct {
	PriceChangePercent         map[string]string `json:"priceChangePercent"`
	UniqueWallets              map[string]string `json:"uniqueWallets"`
	UniqueWalletsChangePercent map[string]string `json:"uniqueWalletsChangePercent"`
	BuyCounts                  map[string]string `json:"buyCounts"`
	SellCounts                 map[string]string `json:"sellCounts"`
	TradeCountChangePercent    map[string]string `json:"tradeCountChangePercent"`
	BuyVolumeUSD               map[string]string `json:"buyVolumeUSD"`
	SellVolumeUSD              map[string]string `json:"sellVolumeUSD"`
	VolumeChangePercent        map[string]string `json:"volumeChangePercent"`
}

func (a *SolanaAnalytics) AnalyticsChain() string { return ChainSolana }

func (a *SolanaAnalytics) CloneAnalytics() TokenAnalytics {
	if a == nil {
		return nil
	}
	out := &SolanaAnalytics{
		PriceChangePercent:         cloneStringMap(a.PriceChangePercent),
		UniqueWallets:              cloneStringMap(a.UniqueWallets),
		UniqueWalletsChangePercent: cloneStringMap(a.UniqueWalletsChangePercent),
		BuyCounts:                  cloneStringMap(a.BuyCounts),
		SellCounts:                 cloneStringMap(a.SellCounts),
		TradeCountChangePercent:    cloneStringMap(a.TradeCountChangePercent),
		BuyVolumeUSD:               cloneStringMap(a.BuyVolumeUSD),
		SellVolumeUSD:              cloneStringMap(a.SellVolumeUSD),
		VolumeChangePercent:        cloneStringMap(a.VolumeChangePercent),
	}
	return out
}

func cloneFloatMap(m map[string]*float64) map[string]*float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]*float64, len(m))
	for k, v := range m {
		out[k] = clonePtr(v)
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DefaultHolderStats returns the chain's keyed holder stats structure with
// every value at its documented default.
func DefaultHolderStats(chain string) HolderStats {
	change := make(map[string]HolderChange, len(BscHolderChangeTimeframes))
	for _, tf := range BscHolderChangeTimeframes {
		change[tf] = HolderChange{}
	}
	supply := make(map[string]HolderSupply, len(HolderSupplyCohorts))
	for _, cohort := range HolderSupplyCohorts {
		supply[cohort] = HolderSupply{}
	}
	distribution := map[string]int64{
		"whales":   0,
		"dolphins": 0,
		"fish":     0,
		"shrimps":  0,
	}
	if chain == ChainBsc {
		distribution["sharks"] = 0
		distribution["octopus"] = 0
		distribution["crabs"] = 0
	}
	return HolderStats{
		HolderChange:       change,
		HolderSupply:       supply,
		HolderDistribution: distribution,
		HoldersByAcquisition: map[string]*int64{
			"swap":     nil,
			"transfer": nil,
			"airdrop":  nil,
		},
	}
}

// NewSolanaAnalytics returns the Solana analytics structure with every
// timeframe present and all values at their fallbacks.
func NewSolanaAnalytics() *SolanaAnalytics {
	fill := func(fallback string) map[string]string {
		m := make(map[string]string, len(SolanaTimeframes))
		for _, tf := range SolanaTimeframes {
			m[tf] = fallback
		}
		return m
	}
	return &SolanaAnalytics{
		PriceChangePercent:         fill("N/A"),
		UniqueWallets:              fill("0"),
		UniqueWalletsChangePercent: fill("N/A"),
		BuyCounts:                  fill("0"),
		SellCounts:                 fill("0"),
		TradeCountChangePercent:    fill("N/A"),
		BuyVolumeUSD:               fill("$0"),
		SellVolumeUSD:              fill("$0"),
		VolumeChangePercent:        fill("N/A"),
	}
}
