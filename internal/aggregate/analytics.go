package aggregate

import (
	"context"
	"fmt"

	"tokenlens/internal/format"
	"tokenlens/internal/model"
	"tokenlens/internal/payload"
)

// AnalyticsReport is the token-analytics endpoint payload: the raw counters
// rendered as strings per timeframe, formatted USD volumes, and the
// untouched provider payload for consumers that need more.
type AnalyticsReport struct {
	TotalBuyers              map[string]string `json:"totalBuyers"`
	TotalSellers             map[string]string `json:"totalSellers"`
	TotalBuys                map[string]string `json:"totalBuys"`
	TotalSells               map[string]string `json:"totalSells"`
	TotalBuyVolumeFormatted  map[string]string `json:"totalBuyVolumeFormatted"`
	TotalSellVolumeFormatted map[string]string `json:"totalSellVolumeFormatted"`
	RawData                  interface{}       `json:"rawData"`
}

// FetchAnalytics builds the standalone trading-analytics report from the
// Moralis analytics endpoint.
func (s *Service) FetchAnalytics(ctx context.Context, address string) (*AnalyticsReport, error) {
	raw, err := s.moralis.Analytics(ctx, address)
	if err != nil {
		return nil, err
	}
	obj := payload.ExtractObject(raw, "aggregate.analytics")
	if obj == nil {
		return nil, fmt.Errorf("analytics payload for %s has no recognizable shape", address)
	}

	return &AnalyticsReport{
		TotalBuyers:              countStrings(obj, "totalBuyers"),
		TotalSellers:             countStrings(obj, "totalSellers"),
		TotalBuys:                countStrings(obj, "totalBuys"),
		TotalSells:               countStrings(obj, "totalSells"),
		TotalBuyVolumeFormatted:  volumeStrings(obj, "totalBuyVolume"),
		TotalSellVolumeFormatted: volumeStrings(obj, "totalSellVolume"),
		RawData:                  map[string]interface{}(obj),
	}, nil
}

func countStrings(obj payload.Object, key string) map[string]string {
	nested := obj.Object(key)
	out := make(map[string]string, len(model.BscTimeframes))
	for _, tf := range model.BscTimeframes {
		if s := nested.String(tf); s != nil {
			out[tf] = *s
		} else {
			out[tf] = "N/A"
		}
	}
	return out
}

func volumeStrings(obj payload.Object, key string) map[string]string {
	nested := obj.Object(key)
	out := make(map[string]string, len(model.BscTimeframes))
	for _, tf := range model.BscTimeframes {
		out[tf] = format.FormatUSD(nested.Float(tf))
	}
	return out
}
