// Package aggregate assembles the standardized token bundle for one chain
// and address. Upstream calls fan out concurrently and settle
// independently; every section of the bundle degrades to its documented
// fallback when its source call failed, so a partial provider outage still
// yields a complete schema.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"tokenlens/internal/format"
	"tokenlens/internal/model"
	"tokenlens/internal/payload"
	"tokenlens/logger"
)

// MoralisAPI is the Moralis adapter surface consumed by the BSC aggregator.
type MoralisAPI interface {
	Metadata(ctx context.Context, address string) (interface{}, error)
	HolderStats(ctx context.Context, address string) (interface{}, error)
	Price(ctx context.Context, address string) (interface{}, error)
	Analytics(ctx context.Context, address string) (interface{}, error)
	Owners(ctx context.Context, address string, limit int) (interface{}, error)
}

// BirdeyeAPI is the Birdeye adapter surface consumed by both aggregators.
type BirdeyeAPI interface {
	TokenMetadata(ctx context.Context, address string) (interface{}, error)
	MarketData(ctx context.Context, address string) (interface{}, error)
	Holders(ctx context.Context, address string, limit, offset int) (interface{}, error)
	TopTraders(ctx context.Context, address, chain string) (interface{}, error)
	TradeData(ctx context.Context, address string) (interface{}, error)
}

type Service struct {
	moralis MoralisAPI
	birdeye BirdeyeAPI
	log     *logger.Log
}

func New(moralis MoralisAPI, birdeye BirdeyeAPI) *Service {
	return &Service{
		moralis: moralis,
		birdeye: birdeye,
		log:     logger.GetLogger(),
	}
}

// FetchBundle assembles the bundle for a supported chain. It returns nil
// with an error only when every upstream call failed or the chain is
// unknown; partial failure still produces a bundle.
func (s *Service) FetchBundle(ctx context.Context, chain, address string) (*model.TokenBundle, error) {
	switch chain {
	case model.ChainBsc:
		// Hex addresses normalize; base58 mints keep their case.
		return s.bscBundle(ctx, strings.ToLower(address))
	case model.ChainSolana:
		return s.solanaBundle(ctx, address)
	default:
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}
}

// circulationRatio derives the circulating/total percentage as an integer.
// A missing or zero denominator yields nil, except the both-zero case which
// reports 0.
func circulationRatio(circulating, total *float64) *int {
	if total == nil {
		return nil
	}
	if *total == 0 {
		if circulating != nil && *circulating == 0 {
			zero := 0
			return &zero
		}
		return nil
	}
	if circulating == nil {
		return nil
	}
	r := int(math.Round(*circulating / *total * 100))
	if r < 0 {
		r = 0
	}
	return &r
}

// floatMapOf copies a nested timeframe→number object, coercing values.
func floatMapOf(obj payload.Object, key string) map[string]*float64 {
	nested := obj.Object(key)
	out := make(map[string]*float64, len(nested))
	for k, v := range nested {
		out[k] = payload.CoerceFloat(v)
	}
	return out
}

// stringOr returns the value or a fallback when nil.
func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// mapTrader converts one provider trader row to the bundle shape. The
// total count falls back to buy+sell when the provider omits it.
func mapTrader(tr payload.Object, tags []string) model.TopTrader {
	buyCount := tr.Int("tradeBuy")
	sellCount := tr.Int("tradeSell")
	totalCount := tr.Int("trade")
	if totalCount == nil {
		var sum int64
		if buyCount != nil {
			sum += *buyCount
		}
		if sellCount != nil {
			sum += *sellCount
		}
		totalCount = &sum
	}
	if tags == nil {
		tags = []string{}
	}
	return model.TopTrader{
		Address: stringOr(tr.String("owner"), "N/A"),
		Tags:    tags,
		Buy: model.TradeSide{
			Count:              buyCount,
			AmountUSDFormatted: format.SafeCurrencySuffix(tr.Float("volumeBuy"), 2),
		},
		Sell: model.TradeSide{
			Count:              sellCount,
			AmountUSDFormatted: format.SafeCurrencySuffix(tr.Float("volumeSell"), 2),
		},
		Total: model.TradeSide{
			Count:              totalCount,
			AmountUSDFormatted: format.SafeCurrencySuffix(tr.Float("volume"), 2),
		},
	}
}
