// Package model defines the standardized token data bundle. The bundle is
// the single schema produced by the per-chain aggregators regardless of
// which upstream calls succeeded, so every formatted field carries a
// defined fallback instead of being absent.
package model

// Chain identifiers used across the bundle and the HTTP surface.
const (
	ChainBsc    = "bsc"
	ChainSolana = "solana"
)

// TokenBundle is the standardized aggregate for one (chain, address) pair.
// It is immutable once cached; use Clone before attaching an AI analysis.
type TokenBundle struct {
	Chain          string         `json:"chain"`
	TokenOverview  TokenOverview  `json:"tokenOverview"`
	HolderStats    HolderStats    `json:"holderStats"`
	Top10Holders   []TokenHolder  `json:"top10Holders,omitempty"`
	TopTraders     []TopTrader    `json:"topTraders"`
	TokenAnalytics TokenAnalytics `json:"tokenAnalytics"`
	Metadata       TokenMetadata  `json:"metadata"`
	AIAnalysis     *AIAnalysis    `json:"aiAnalysis,omitempty"`
}

// TokenOverview carries the headline metrics. Formatted fields fall back to
// "N/A", "$0" or "0" rather than empty strings.
type TokenOverview struct {
	Name                       string  `json:"name"`
	Symbol                     string  `json:"symbol"`
	LogoURI                    *string `json:"logoURI"`
	Price                      float64 `json:"price"`
	PriceFormatted             string  `json:"priceFormatted"`
	PriceChange24h             string  `json:"priceChange24h"`
	LiquidityFormatted         string  `json:"liquidityFormatted"`
	MarketCap                  float64 `json:"marketCap"`
	MarketCapFormatted         string  `json:"marketCapFormatted"`
	FdvFormatted               string  `json:"fdvFormatted"`
	CirculatingSupply          float64 `json:"circulatingSupply"`
	CirculatingSupplyFormatted string  `json:"circulatingSupplyFormatted"`
	CirculationRatio           *int    `json:"circulationRatio"`
	ExplorerURL                *string `json:"explorerUrl"`
	Decimals                   int     `json:"decimals"`
}

type HolderChange struct {
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
}

type HolderSupply struct {
	SupplyPercent *float64 `json:"supplyPercent"`
}

// HolderStats aggregates holder counts, churn and concentration. Timeframe
// and cohort keys are chain-specific; missing sections keep their keyed
// structure with nil values.
type HolderStats struct {
	TotalHolders         *int64                  `json:"totalHolders"`
	HolderChange         map[string]HolderChange `json:"holderChange"`
	HolderSupply         map[string]HolderSupply `json:"holderSupply"`
	HolderDistribution   map[string]int64        `json:"holderDistribution"`
	HoldersByAcquisition map[string]*int64       `json:"holdersByAcquisition"`
}

// TokenHolder is one entry in the largest-holders list. Quantity keeps the
// raw base-unit string so precision is never lost.
type TokenHolder struct {
	Address           string `json:"TokenHolderAddress"`
	Quantity          string `json:"TokenHolderQuantity"`
	QuantityFormatted string `json:"TokenHolderQuantityFormatted"`
	UsdValueFormatted string `json:"TokenHolderUsdValueFormatted"`
}

// TradeSide holds one direction of a trader's activity.
type TradeSide struct {
	Count              *int64 `json:"count"`
	AmountUSDFormatted string `json:"amountUSDFormatted"`
}

// TopTrader is one provider-ranked trader entry. Order follows the provider
// ranking, never re-sorted. Tags such as "sniper-bot" or "arbitrage-bot"
// flag automated trading for downstream consumers.
type TopTrader struct {
	Address string    `json:"address"`
	Tags    []string  `json:"tags"`
	Buy     TradeSide `json:"buy"`
	Sell    TradeSide `json:"sell"`
	Total   TradeSide `json:"total"`
}

// TokenMetadata mirrors the provider metadata surface. Field names keep the
// upstream snake_case where consumers depend on it.
type TokenMetadata struct {
	Address               string             `json:"address"`
	Decimals              int                `json:"decimals"`
	Name                  string             `json:"name"`
	Symbol                string             `json:"symbol"`
	TotalSupply           *string            `json:"totalSupply"`
	FullyDilutedValuation *float64           `json:"fully_diluted_valuation"`
	MarketCap             *float64           `json:"market_cap"`
	CirculatingSupply     *string            `json:"circulating_supply"`
	VerifiedContract      *bool              `json:"verified_contract"`
	PossibleSpam          *bool              `json:"possible_spam"`
	SecurityScore         *float64           `json:"security_score"`
	Categories            []string           `json:"categories"`
	Links                 map[string]*string `json:"links"`
	ExplorerURL           *string            `json:"explorerUrl"`
}

// AIAnalysis is attached to a cloned bundle after narrative generation.
type AIAnalysis struct {
	BasicAnalysis string `json:"basicAnalysis"`
}

// Clone deep-copies the bundle so callers can attach an AI analysis without
// mutating the cached object.
func (b *TokenBundle) Clone() *TokenBundle {
	if b == nil {
		return nil
	}
	out := *b
	out.HolderStats = b.HolderStats.clone()
	if b.Top10Holders != nil {
		out.Top10Holders = append([]TokenHolder(nil), b.Top10Holders...)
	}
	if b.TopTraders != nil {
		out.TopTraders = make([]TopTrader, len(b.TopTraders))
		for i, t := range b.TopTraders {
			out.TopTraders[i] = t.clone()
		}
	}
	if b.TokenAnalytics != nil {
		out.TokenAnalytics = b.TokenAnalytics.CloneAnalytics()
	}
	out.Metadata = b.Metadata.clone()
	out.TokenOverview = b.TokenOverview.clone()
	if b.AIAnalysis != nil {
		ai := *b.AIAnalysis
		out.AIAnalysis = &ai
	}
	return &out
}

func (o TokenOverview) clone() TokenOverview {
	o.LogoURI = clonePtr(o.LogoURI)
	o.CirculationRatio = clonePtr(o.CirculationRatio)
	o.ExplorerURL = clonePtr(o.ExplorerURL)
	return o
}

func (h HolderStats) clone() HolderStats {
	h.TotalHolders = clonePtr(h.TotalHolders)
	if h.HolderChange != nil {
		m := make(map[string]HolderChange, len(h.HolderChange))
		for k, v := range h.HolderChange {
			v.Change = clonePtr(v.Change)
			v.ChangePercent = clonePtr(v.ChangePercent)
			m[k] = v
		}
		h.HolderChange = m
	}
	if h.HolderSupply != nil {
		m := make(map[string]HolderSupply, len(h.HolderSupply))
		for k, v := range h.HolderSupply {
			v.SupplyPercent = clonePtr(v.SupplyPercent)
			m[k] = v
		}
		h.HolderSupply = m
	}
	if h.HolderDistribution != nil {
		m := make(map[string]int64, len(h.HolderDistribution))
		for k, v := range h.HolderDistribution {
			m[k] = v
		}
		h.HolderDistribution = m
	}
	if h.HoldersByAcquisition != nil {
		m := make(map[string]*int64, len(h.HoldersByAcquisition))
		for k, v := range h.HoldersByAcquisition {
			m[k] = clonePtr(v)
		}
		h.HoldersByAcquisition = m
	}
	return h
}

func (t TopTrader) clone() TopTrader {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	t.Buy.Count = clonePtr(t.Buy.Count)
	t.Sell.Count = clonePtr(t.Sell.Count)
	t.Total.Count = clonePtr(t.Total.Count)
	return t
}

func (m TokenMetadata) clone() TokenMetadata {
	m.TotalSupply = clonePtr(m.TotalSupply)
	m.FullyDilutedValuation = clonePtr(m.FullyDilutedValuation)
	m.MarketCap = clonePtr(m.MarketCap)
	m.CirculatingSupply = clonePtr(m.CirculatingSupply)
	m.VerifiedContract = clonePtr(m.VerifiedContract)
	m.PossibleSpam = clonePtr(m.PossibleSpam)
	m.SecurityScore = clonePtr(m.SecurityScore)
	if m.Categories != nil {
		m.Categories = append([]string(nil), m.Categories...)
	}
	if m.Links != nil {
		links := make(map[string]*string, len(m.Links))
		for k, v := range m.Links {
			links[k] = clonePtr(v)
		}
		m.Links = links
	}
	m.ExplorerURL = clonePtr(m.ExplorerURL)
	return m
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
