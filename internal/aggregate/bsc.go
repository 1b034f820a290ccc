package aggregate

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"

	"tokenlens/internal/format"
	"tokenlens/internal/model"
	"tokenlens/internal/payload"
	"tokenlens/internal/settle"
	"tokenlens/logger"
)

// bscExplorerURL builds the BscScan token page link.
func bscExplorerURL(address string) string {
	return "https://bscscan.com/token/" + address
}

func (s *Service) bscBundle(ctx context.Context, address string) (*model.TokenBundle, error) {
	log := s.log.WithComponent("aggregate.bsc").WithFields(logger.Fields{"address": address})

	outcomes := settle.All(ctx, []settle.Task{
		{Name: "metadata", Run: func(ctx context.Context) (interface{}, error) {
			return s.moralis.Metadata(ctx, address)
		}},
		{Name: "holderStats", Run: func(ctx context.Context) (interface{}, error) {
			return s.moralis.HolderStats(ctx, address)
		}},
		{Name: "topTraders", Run: func(ctx context.Context) (interface{}, error) {
			return s.birdeye.TopTraders(ctx, address, model.ChainBsc)
		}},
		{Name: "analytics", Run: func(ctx context.Context) (interface{}, error) {
			return s.moralis.Analytics(ctx, address)
		}},
		{Name: "price", Run: func(ctx context.Context) (interface{}, error) {
			return s.moralis.Price(ctx, address)
		}},
	})

	allFailed := true
	for _, o := range outcomes {
		if o.Fulfilled() {
			allFailed = false
		} else {
			log.WithError(o.Err).WithFields(logger.Fields{"call": o.Name}).Warn("upstream call failed")
		}
	}
	if allFailed {
		return nil, fmt.Errorf("all upstream calls failed for bsc token %s", address)
	}

	var meta, holderStatsObj, analyticsObj, priceObj payload.Object
	var traderRows []payload.Object
	if outcomes[0].Fulfilled() {
		meta = payload.ExtractObject(outcomes[0].Value, "aggregate.bsc.metadata")
	}
	if outcomes[1].Fulfilled() {
		holderStatsObj = payload.ExtractObject(outcomes[1].Value, "aggregate.bsc.holders")
	}
	if outcomes[2].Fulfilled() {
		traderRows = payload.ExtractList(outcomes[2].Value, "aggregate.bsc.traders")
	}
	if outcomes[3].Fulfilled() {
		analyticsObj = payload.ExtractObject(outcomes[3].Value, "aggregate.bsc.analytics")
	}
	if outcomes[4].Fulfilled() {
		priceObj = payload.ExtractObject(outcomes[4].Value, "aggregate.bsc.price")
	}

	bundle := &model.TokenBundle{Chain: model.ChainBsc}

	pricePtr := priceObj.Float("usdPrice")
	price := floatOr(pricePtr, 0)
	decimals := 18
	if d := meta.Int("decimals"); d != nil {
		decimals = int(*d)
	}
	circStr := meta.String("circulating_supply")
	circPtr := meta.Float("circulating_supply")
	totalPtr := meta.Float("total_supply")

	overview := model.TokenOverview{
		Name:           stringOr(meta.String("name"), "N/A"),
		Symbol:         stringOr(meta.String("symbol"), "N/A"),
		LogoURI:        meta.String("logo"),
		Price:          price,
		PriceFormatted: format.FormatCurrency(pricePtr),
		PriceChange24h: format.FormatPercentage(priceObj.Float("24hrPercentChange"), 2),
		Decimals:       decimals,
	}
	overview.LiquidityFormatted = format.SafeCurrencySuffix(priceObj.Float("pairTotalLiquidityUsd"), 2)

	marketCap := meta.Float("market_cap")
	if (marketCap == nil || *marketCap == 0) && circStr != nil && price > 0 {
		mc := fallbackMarketCap(*circStr, price, decimals)
		marketCap = &mc
	}
	overview.MarketCap = floatOr(marketCap, 0)
	overview.MarketCapFormatted = format.SafeCurrencySuffix(marketCap, 2)
	overview.FdvFormatted = format.SafeCurrencySuffix(meta.Float("fully_diluted_valuation"), 2)
	overview.CirculatingSupply = floatOr(circPtr, 0)
	overview.CirculatingSupplyFormatted = format.SafeNumberSuffix(circPtr, 2)
	overview.CirculationRatio = circulationRatio(circPtr, totalPtr)
	if a := meta.String("address"); a != nil {
		u := bscExplorerURL(*a)
		overview.ExplorerURL = &u
	}
	bundle.TokenOverview = overview

	traders := make([]model.TopTrader, 0, len(traderRows))
	for _, tr := range traderRows {
		traders = append(traders, mapTrader(tr, tr.Strings("tags")))
	}
	bundle.TopTraders = traders

	bundle.HolderStats = s.bscHolderStats(ctx, address, holderStatsObj, outcomes[1].Fulfilled())

	analytics := &model.BscAnalytics{}
	if analyticsObj != nil {
		analytics = &model.BscAnalytics{
			TotalBuyers:                floatMapOf(analyticsObj, "totalBuyers"),
			TotalSellers:               floatMapOf(analyticsObj, "totalSellers"),
			TotalBuys:                  floatMapOf(analyticsObj, "totalBuys"),
			TotalSells:                 floatMapOf(analyticsObj, "totalSells"),
			TotalBuyVolume:             floatMapOf(analyticsObj, "totalBuyVolume"),
			TotalSellVolume:            floatMapOf(analyticsObj, "totalSellVolume"),
			TotalLiquidityUsd:          analyticsObj.Float("totalLiquidityUsd"),
			TotalFullyDilutedValuation: analyticsObj.Float("totalFullyDilutedValuation"),
		}
	}
	bundle.TokenAnalytics = analytics

	metadata := model.TokenMetadata{
		Address:  address,
		Decimals: decimals,
		Name:     overview.Name,
		Symbol:   overview.Symbol,
	}
	if meta != nil {
		if a := meta.String("address"); a != nil {
			metadata.Address = *a
			u := bscExplorerURL(*a)
			metadata.ExplorerURL = &u
		}
		metadata.TotalSupply = meta.String("total_supply")
		metadata.FullyDilutedValuation = meta.Float("fully_diluted_valuation")
		metadata.MarketCap = meta.Float("market_cap")
		metadata.CirculatingSupply = circStr
		metadata.VerifiedContract = meta.Bool("verified_contract")
		metadata.PossibleSpam = meta.Bool("possible_spam")
		metadata.SecurityScore = meta.Float("security_score")
		metadata.Categories = meta.Strings("categories")
		if links := meta.Object("links"); links != nil {
			metadata.Links = make(map[string]*string, len(links))
			for k := range links {
				metadata.Links[k] = links.String(k)
			}
		}
	}
	if metadata.Categories == nil {
		metadata.Categories = []string{}
	}
	bundle.Metadata = metadata

	return bundle, nil
}

// bscHolderStats maps the provider statistics when the holders call
// succeeded, otherwise derives concentration and distribution locally from
// the raw owners list.
func (s *Service) bscHolderStats(ctx context.Context, address string, obj payload.Object, fulfilled bool) model.HolderStats {
	stats := model.DefaultHolderStats(model.ChainBsc)
	if fulfilled && obj != nil {
		stats.TotalHolders = obj.Int("totalHolders")
		if hc := obj.Object("holderChange"); hc != nil {
			m := make(map[string]model.HolderChange, len(hc))
			for tf := range hc {
				sub := hc.Object(tf)
				m[tf] = model.HolderChange{
					Change:        sub.Float("change"),
					ChangePercent: sub.Float("changePercent"),
				}
			}
			stats.HolderChange = m
		}
		if hs := obj.Object("holderSupply"); hs != nil {
			m := make(map[string]model.HolderSupply, len(hs))
			for cohort := range hs {
				m[cohort] = model.HolderSupply{SupplyPercent: hs.Object(cohort).Float("supplyPercent")}
			}
			stats.HolderSupply = m
		}
		if hd := obj.Object("holderDistribution"); hd != nil {
			m := make(map[string]int64, len(hd))
			for class := range hd {
				var n int64
				if v := hd.Int(class); v != nil {
					n = *v
				}
				m[class] = n
			}
			stats.HolderDistribution = m
		}
		if ha := obj.Object("holdersByAcquisition"); ha != nil {
			m := make(map[string]*int64, len(ha))
			for method := range ha {
				m[method] = ha.Int(method)
			}
			stats.HoldersByAcquisition = m
		}
		return stats
	}

	// Fallback: recompute concentration from the raw owners list. The list
	// is capped at 100 entries so totalHolders stays unknown.
	raw, err := s.moralis.Owners(ctx, address, 100)
	if err != nil {
		s.log.WithComponent("aggregate.bsc").WithError(err).WithFields(logger.Fields{"address": address}).Warn("owners fallback failed")
		return stats
	}
	owners := payload.ExtractList(raw, "aggregate.bsc.owners")
	if len(owners) == 0 {
		return stats
	}
	s.log.WithComponent("aggregate.bsc").WithFields(logger.Fields{
		"address":   address,
		"owners":    len(owners),
		"top_owner": format.MaskAddress(ownerAddress(owners[0])),
	}).Info("computing holder stats from owners list")

	applyBscOwnerStats(&stats, owners)
	return stats
}

// applyBscOwnerStats fills supply cohorts and distribution classes from the
// per-owner supply percentages. Class thresholds in percent of total
// supply: whale >=5, shark >=1, dolphin >=0.5, fish >=0.1, octopus >=0.05,
// crab >=0.01, else shrimp.
func applyBscOwnerStats(stats *model.HolderStats, owners []payload.Object) {
	cohorts := map[int]string{10: "top10", 25: "top25", 50: "top50", 100: "top100"}
	var cumulative float64
	for i, owner := range owners {
		if i >= 100 {
			break
		}
		pct := floatOr(owner.Float("percentage_relative_to_total_supply"), 0)
		cumulative += pct
		if cohort, ok := cohorts[i+1]; ok {
			rounded := math.Round(cumulative*100) / 100
			stats.HolderSupply[cohort] = model.HolderSupply{SupplyPercent: &rounded}
		}

		switch {
		case pct >= 5:
			stats.HolderDistribution["whales"]++
		case pct >= 1:
			stats.HolderDistribution["sharks"]++
		case pct >= 0.5:
			stats.HolderDistribution["dolphins"]++
		case pct >= 0.1:
			stats.HolderDistribution["fish"]++
		case pct >= 0.05:
			stats.HolderDistribution["octopus"]++
		case pct >= 0.01:
			stats.HolderDistribution["crabs"]++
		case pct > 0:
			stats.HolderDistribution["shrimps"]++
		}
	}
}

// ownerAddress reads the holder address from either the current or the
// legacy Moralis owners field.
func ownerAddress(owner payload.Object) string {
	if a := owner.String("address"); a != nil {
		return *a
	}
	return stringOr(owner.String("owner_address"), "N/A")
}

// fallbackMarketCap derives market cap from circulating supply in base
// units when the provider omits it. The price is scaled to micro-dollars so
// the whole computation stays in integers; any parse failure clamps to 0.
func fallbackMarketCap(circulatingSupply string, price float64, decimals int) float64 {
	intPart := strings.SplitN(strings.TrimSpace(circulatingSupply), ".", 2)[0]
	c, ok := new(big.Int).SetString(intPart, 10)
	if !ok || decimals < 0 {
		return 0
	}
	p := big.NewInt(int64(math.Round(price * 1e6)))
	divisor := new(big.Int).Mul(
		big.NewInt(1_000_000),
		new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil),
	)
	if divisor.Sign() <= 0 {
		return 0
	}
	q := new(big.Int).Quo(new(big.Int).Mul(c, p), divisor)
	f, _ := new(big.Float).SetInt(q).Float64()
	if f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}
