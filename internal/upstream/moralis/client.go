// Package moralis wraps the Moralis Deep Index API endpoints used for BSC
// tokens. Each method performs one HTTP call; transport and non-2xx
// failures surface as errors for the fan-out layer to isolate.
package moralis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"tokenlens/config"
	"tokenlens/internal/upstream"
	"tokenlens/logger"
)

const providerName = "moralis"

// bscChainID is the hex chain id Moralis expects for BSC mainnet.
const bscChainID = "0x38"

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
	retry   config.RetryConfig
	log     *logger.Log
}

func NewClient(cfg config.MoralisConfig) *Client {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimit.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		retry:   cfg.Retry,
		log:     logger.GetLogger(),
	}
}

// Metadata fetches ERC20 metadata. Moralis wraps the single token in an
// array; callers take element zero.
func (c *Client) Metadata(ctx context.Context, address string) (interface{}, error) {
	q := url.Values{}
	q.Set("chain", bscChainID)
	q.Set("addresses[0]", address)
	return c.get(ctx, "/erc20/metadata", q)
}

// HolderStats fetches the aggregated holder statistics for a token.
func (c *Client) HolderStats(ctx context.Context, address string) (interface{}, error) {
	q := url.Values{}
	q.Set("chain", bscChainID)
	return c.get(ctx, "/erc20/"+address+"/holders", q)
}

// Price fetches the current USD price including the 24h percent change.
func (c *Client) Price(ctx context.Context, address string) (interface{}, error) {
	q := url.Values{}
	q.Set("chain", "bsc")
	q.Set("include", "percent_change")
	return c.get(ctx, "/erc20/"+address+"/price", q)
}

// Analytics fetches buyer/seller/volume counters keyed by timeframe.
func (c *Client) Analytics(ctx context.Context, address string) (interface{}, error) {
	q := url.Values{}
	q.Set("chain", "bsc")
	return c.get(ctx, "/tokens/"+address+"/analytics", q)
}

// Owners fetches the raw holder list, largest balances first. Both the new
// (address) and old (owner_address) response formats pass through; the
// aggregator handles the difference.
func (c *Client) Owners(ctx context.Context, address string, limit int) (interface{}, error) {
	if limit <= 0 {
		limit = 100
	}
	q := url.Values{}
	q.Set("chain", "bsc")
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("order", "DESC")
	return c.get(ctx, "/erc20/"+address+"/owners", q)
}

// get performs one GET with retry. Client errors 400 and 401 never retry;
// everything else gets up to retry.MaxAttempts extra attempts with
// exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values) (interface{}, error) {
	log := c.log.WithComponent("moralis").WithFields(logger.Fields{"path": path})

	b := &backoff.Backoff{
		Min:    c.retry.BaseDelay,
		Max:    c.retry.MaxDelay,
		Factor: 2,
		Jitter: false,
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := b.Duration()
			log.WithFields(logger.Fields{"attempt": attempt, "delay_ms": delay.Milliseconds()}).Warn("retrying moralis request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		payload, err := c.doGet(ctx, path, query)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if se, ok := err.(*upstream.StatusError); ok && (se.Status == http.StatusBadRequest || se.Status == http.StatusUnauthorized) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	log.WithError(lastErr).Error("moralis request failed")
	return nil, lastErr
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values) (interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moralis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("moralis response read: %w", err)
	}
	logger.RecordUpstreamCall(providerName, len(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &upstream.StatusError{Provider: providerName, Status: resp.StatusCode, Body: string(body)}
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("moralis response decode: %w", err)
	}
	return payload, nil
}
