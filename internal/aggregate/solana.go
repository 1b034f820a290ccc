package aggregate

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"tokenlens/internal/format"
	"tokenlens/internal/model"
	"tokenlens/internal/payload"
	"tokenlens/internal/settle"
	"tokenlens/logger"
)

func solanaExplorerURL(address string) string {
	return "https://solscan.io/token/" + address
}

func (s *Service) solanaBundle(ctx context.Context, address string) (*model.TokenBundle, error) {
	log := s.log.WithComponent("aggregate.solana").WithFields(logger.Fields{"address": address})

	outcomes := settle.All(ctx, []settle.Task{
		{Name: "metadata", Run: func(ctx context.Context) (interface{}, error) {
			return s.birdeye.TokenMetadata(ctx, address)
		}},
		{Name: "marketData", Run: func(ctx context.Context) (interface{}, error) {
			return s.birdeye.MarketData(ctx, address)
		}},
		{Name: "holders", Run: func(ctx context.Context) (interface{}, error) {
			return s.birdeye.Holders(ctx, address, 100, 0)
		}},
		{Name: "topTraders", Run: func(ctx context.Context) (interface{}, error) {
			return s.birdeye.TopTraders(ctx, address, model.ChainSolana)
		}},
		{Name: "tradeData", Run: func(ctx context.Context) (interface{}, error) {
			return s.birdeye.TradeData(ctx, address)
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
		return nil, fmt.Errorf("all upstream calls failed for solana token %s", address)
	}

	var meta, market, tradeData payload.Object
	var holders, traderRows []payload.Object
	if outcomes[0].Fulfilled() {
		meta = payload.ExtractObject(outcomes[0].Value, "aggregate.solana.metadata")
	}
	if outcomes[1].Fulfilled() {
		market = payload.ExtractObject(outcomes[1].Value, "aggregate.solana.market")
	}
	if outcomes[2].Fulfilled() {
		holders = payload.ExtractList(outcomes[2].Value, "aggregate.solana.holders")
	}
	if outcomes[3].Fulfilled() {
		traderRows = payload.ExtractList(outcomes[3].Value, "aggregate.solana.traders")
	}
	if outcomes[4].Fulfilled() {
		tradeData = payload.ExtractObject(outcomes[4].Value, "aggregate.solana.trade")
	}

	bundle := &model.TokenBundle{Chain: model.ChainSolana}

	pricePtr := tradeData.Float("price")
	if pricePtr == nil {
		pricePtr = market.Float("price")
	}
	price := floatOr(pricePtr, 0)
	decimals := 0
	if d := meta.Int("decimals"); d != nil {
		decimals = int(*d)
	}
	circPtr := market.Float("circulating_supply")
	totalPtr := market.Float("total_supply")
	marketCapPtr := market.Float("market_cap")
	explorer := solanaExplorerURL(address)

	overview := model.TokenOverview{
		Name:                       stringOr(meta.String("name"), "N/A"),
		Symbol:                     stringOr(meta.String("symbol"), "N/A"),
		LogoURI:                    meta.String("logo_uri"),
		Price:                      price,
		PriceFormatted:             format.FormatCurrency(pricePtr),
		PriceChange24h:             format.FormatPercentage(tradeData.Float("price_change_24h_percent"), 2),
		LiquidityFormatted:         format.SafeCurrencySuffix(market.Float("liquidity"), 2),
		MarketCap:                  floatOr(marketCapPtr, 0),
		MarketCapFormatted:         format.SafeCurrencySuffix(marketCapPtr, 2),
		FdvFormatted:               format.SafeCurrencySuffix(market.Float("fdv"), 2),
		CirculatingSupply:          floatOr(circPtr, 0),
		CirculatingSupplyFormatted: format.SafeNumberSuffix(circPtr, 2),
		CirculationRatio:           circulationRatio(circPtr, totalPtr),
		ExplorerURL:                &explorer,
		Decimals:                   decimals,
	}
	bundle.TokenOverview = overview

	bundle.Top10Holders = mapTop10Holders(holders, decimals, price)

	traders := make([]model.TopTrader, 0, len(traderRows))
	for _, tr := range traderRows {
		traders = append(traders, mapTrader(tr, collapseBotTags(tr.Strings("tags"))))
	}
	bundle.TopTraders = traders

	stats := model.DefaultHolderStats(model.ChainSolana)
	stats.TotalHolders = tradeData.Int("holder")
	applySolanaHolderStats(&stats, holders, market.String("total_supply"))
	bundle.HolderStats = stats

	bundle.TokenAnalytics = solanaAnalytics(tradeData)

	metadata := model.TokenMetadata{
		Address:               stringOr(meta.String("address"), address),
		Decimals:              decimals,
		Name:                  overview.Name,
		Symbol:                overview.Symbol,
		TotalSupply:           market.String("total_supply"),
		FullyDilutedValuation: market.Float("fdv"),
		MarketCap:             marketCapPtr,
		Categories:            []string{},
		ExplorerURL:           &explorer,
	}
	bundle.Metadata = metadata

	return bundle, nil
}

// collapseBotTags reduces automated-trading tags to a single "bot" marker;
// any other tag set passes through.
func collapseBotTags(tags []string) []string {
	for _, tag := range tags {
		if tag == "sniper-bot" || tag == "arbitrage-bot" {
			return []string{"bot"}
		}
	}
	return tags
}

// mapTop10Holders formats the ten largest holders. USD value needs a price;
// without one it stays "N/A".
func mapTop10Holders(holders []payload.Object, decimals int, price float64) []model.TokenHolder {
	n := len(holders)
	if n > 10 {
		n = 10
	}
	out := make([]model.TokenHolder, 0, n)
	for _, h := range holders[:n] {
		amount := stringOr(h.String("amount"), "0")
		holder := model.TokenHolder{
			Address:           stringOr(h.String("owner"), "N/A"),
			Quantity:          amount,
			QuantityFormatted: "N/A",
			UsdValueFormatted: "N/A",
		}
		if holder.Address != "N/A" {
			holder.QuantityFormatted = format.FormatTokenAmount(amount, decimals, 4)
			if price > 0 {
				if qty, err := decimal.NewFromString(amount); err == nil {
					value := qty.Shift(int32(-decimals)).InexactFloat64() * price
					holder.UsdValueFormatted = format.FormatCurrency(&value)
				}
			}
		}
		out = append(out, holder)
	}
	return out
}

// applySolanaHolderStats computes supply concentration and distribution
// classes from the raw holder list. Amounts stay in base-unit integers; the
// cohort percentage is scaled by 10000 before division to keep two decimal
// places. Class thresholds as fractions of total supply: whale >1%,
// dolphin >0.1%, fish >0.01%, else shrimp.
func applySolanaHolderStats(stats *model.HolderStats, holders []payload.Object, totalSupply *string) {
	if len(holders) == 0 || totalSupply == nil {
		return
	}
	ts, ok := new(big.Int).SetString(*totalSupply, 10)
	if !ok || ts.Sign() <= 0 {
		return
	}

	whaleMin := new(big.Int).Quo(ts, big.NewInt(100))
	dolphinMin := new(big.Int).Quo(ts, big.NewInt(1000))
	fishMin := new(big.Int).Quo(ts, big.NewInt(10000))

	cohorts := map[int]string{10: "top10", 25: "top25", 50: "top50", 100: "top100"}
	cumulative := new(big.Int)
	for i, h := range holders {
		if i >= 100 {
			break
		}
		amount, ok := new(big.Int).SetString(stringOr(h.String("amount"), "0"), 10)
		if !ok {
			amount = new(big.Int)
		}
		cumulative.Add(cumulative, amount)
		if cohort, found := cohorts[i+1]; found {
			scaled := new(big.Int).Quo(new(big.Int).Mul(cumulative, big.NewInt(10000)), ts)
			pct := float64(scaled.Int64()) / 100
			stats.HolderSupply[cohort] = model.HolderSupply{SupplyPercent: &pct}
		}

		switch {
		case amount.Cmp(whaleMin) > 0:
			stats.HolderDistribution["whales"]++
		case amount.Cmp(dolphinMin) > 0:
			stats.HolderDistribution["dolphins"]++
		case amount.Cmp(fishMin) > 0:
			stats.HolderDistribution["fish"]++
		case amount.Sign() > 0:
			stats.HolderDistribution["shrimps"]++
		}
	}
}

// solanaAnalytics maps the per-timeframe trade data fields into the nine
// metric families. Every timeframe key is always present; a missing trade
// data payload leaves the fallbacks in place.
func solanaAnalytics(tradeData payload.Object) *model.SolanaAnalytics {
	analytics := model.NewSolanaAnalytics()
	if tradeData == nil {
		return analytics
	}
	for _, tf := range model.SolanaTimeframes {
		analytics.PriceChangePercent[tf] = format.FormatPercentage(tradeData.Float("price_change_"+tf+"_percent"), 2)
		analytics.UniqueWallets[tf] = countValue(tradeData, "unique_wallet_"+tf)
		analytics.UniqueWalletsChangePercent[tf] = format.FormatPercentage(tradeData.Float("unique_wallet_"+tf+"_change_percent"), 2)
		analytics.BuyCounts[tf] = countValue(tradeData, "buy_"+tf)
		analytics.SellCounts[tf] = countValue(tradeData, "sell_"+tf)
		analytics.TradeCountChangePercent[tf] = format.FormatPercentage(tradeData.Float("trade_"+tf+"_change_percent"), 2)
		analytics.BuyVolumeUSD[tf] = format.SafeCurrencySuffix(tradeData.Float("volume_buy_"+tf+"_usd"), 2)
		analytics.SellVolumeUSD[tf] = format.SafeCurrencySuffix(tradeData.Float("volume_sell_"+tf+"_usd"), 2)
		analytics.VolumeChangePercent[tf] = format.FormatPercentage(tradeData.Float("volume_"+tf+"_change_percent"), 2)
	}
	return analytics
}

func countValue(obj payload.Object, key string) string {
	v, ok := obj.Get(key)
	if !ok {
		return "0"
	}
	return format.ProcessCountValue(v)
}
