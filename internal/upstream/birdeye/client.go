// Package birdeye wraps the Birdeye API. Solana token data lives on the
// main host; the BSC top-traders endpoint is only served from the public
// host, so the client keeps both base URLs.
package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"tokenlens/config"
	"tokenlens/internal/upstream"
	"tokenlens/logger"
)

const providerName = "birdeye"

type Client struct {
	baseURL       string
	publicBaseURL string
	apiKey        string
	httpc         *http.Client
	limiter       *rate.Limiter
	log           *logger.Log
}

func NewClient(cfg config.BirdeyeConfig) *Client {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimit.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		publicBaseURL: cfg.PublicBaseURL,
		apiKey:        cfg.APIKey,
		httpc:         &http.Client{Timeout: cfg.Timeout},
		limiter:       rate.NewLimiter(rate.Limit(rps), burst),
		log:           logger.GetLogger(),
	}
}

// TokenMetadata fetches name, symbol, logo and links for a Solana token.
func (c *Client) TokenMetadata(ctx context.Context, address string) (interface{}, error) {
	q := url.Values{}
	q.Set("address", address)
	return c.get(ctx, c.baseURL, "/defi/token_metadata", "solana", q)
}

// MarketData fetches price, liquidity, market cap and supply figures.
func (c *Client) MarketData(ctx context.Context, address string) (interface{}, error) {
	q := url.Values{}
	q.Set("address", address)
	return c.get(ctx, c.baseURL, "/defi/token_market_data", "solana", q)
}

// Holders fetches the holder list ordered by balance.
func (c *Client) Holders(ctx context.Context, address string, limit, offset int) (interface{}, error) {
	if limit <= 0 {
		limit = 100
	}
	q := url.Values{}
	q.Set("address", address)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return c.get(ctx, c.baseURL, "/defi/token_holders", "solana", q)
}

// Price fetches the current price for one token. Used by the diagnostic
// probe endpoint, not by the bundle aggregators.
func (c *Client) Price(ctx context.Context, address, chain string) (interface{}, error) {
	q := url.Values{}
	q.Set("address", address)
	return c.get(ctx, c.baseURL, "/defi/price", chain, q)
}

// TradeData fetches per-timeframe trade and volume statistics.
func (c *Client) TradeData(ctx context.Context, address string) (interface{}, error) {
	q := url.Values{}
	q.Set("address", address)
	return c.get(ctx, c.baseURL, "/defi/token_trade_data", "solana", q)
}

// TopTraders fetches the highest-volume traders for the last 24 hours.
// The chain selects the x-chain header; BSC is only available on the
// public host under a different path.
func (c *Client) TopTraders(ctx context.Context, address, chain string) (interface{}, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("time_frame", "24h")
	q.Set("sort_type", "desc")
	q.Set("sort_by", "volume")
	q.Set("limit", "10")
	q.Set("offset", "0")
	if chain == "bsc" {
		return c.get(ctx, c.publicBaseURL, "/defi/v2/tokens/top_traders", "bsc", q)
	}
	return c.get(ctx, c.baseURL, "/defi/v2/tokens/top_traders", "solana", q)
}

func (c *Client) get(ctx context.Context, base, path, chain string, query url.Values) (interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("x-chain", chain)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("birdeye request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("birdeye response read: %w", err)
	}
	logger.RecordUpstreamCall(providerName, len(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithComponent("birdeye").WithFields(logger.Fields{"path": path, "status": resp.StatusCode}).Error("birdeye request failed")
		return nil, &upstream.StatusError{Provider: providerName, Status: resp.StatusCode, Body: string(body)}
	}

	var envelope struct {
		Success *bool       `json:"success"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("birdeye response decode: %w", err)
	}
	// Birdeye reports some failures inside a 200 body.
	if envelope.Success != nil && !*envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, &upstream.BusinessError{Provider: providerName, Message: msg}
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("birdeye response decode: %w", err)
	}
	return payload, nil
}
