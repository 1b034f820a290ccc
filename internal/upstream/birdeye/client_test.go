package birdeye

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokenlens/config"
	"tokenlens/internal/upstream"
)

func testClient(baseURL, publicBaseURL string) *Client {
	return NewClient(config.BirdeyeConfig{
		BaseURL:       baseURL,
		PublicBaseURL: publicBaseURL,
		APIKey:        "be-key",
		Timeout:       2 * time.Second,
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 100,
			BurstSize:         10,
		},
	})
}

func TestMarketDataUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/defi/token_market_data" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-API-KEY"); got != "be-key" {
			t.Errorf("api key header = %q", got)
		}
		if got := r.Header.Get("x-chain"); got != "solana" {
			t.Errorf("x-chain = %q", got)
		}
		w.Write([]byte(`{"success":true,"data":{"price":1.5,"liquidity":2000}}`))
	}))
	defer srv.Close()

	payload, err := testClient(srv.URL, srv.URL).MarketData(context.Background(), "So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("MarketData: %v", err)
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload type = %T", payload)
	}
	if obj["price"] != float64(1.5) {
		t.Errorf("price = %v", obj["price"])
	}
}

func TestBusinessFailureInsideOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"token not found"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).TokenMetadata(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	be, ok := err.(*upstream.BusinessError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if be.Message != "token not found" {
		t.Errorf("message = %q", be.Message)
	}
}

func TestTopTradersRouting(t *testing.T) {
	var mainHits, publicHits int
	check := func(w http.ResponseWriter, r *http.Request, wantChain string) {
		if r.URL.Path != "/defi/v2/tokens/top_traders" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-chain"); got != wantChain {
			t.Errorf("x-chain = %q, want %q", got, wantChain)
		}
		q := r.URL.Query()
		if q.Get("time_frame") != "24h" || q.Get("sort_by") != "volume" || q.Get("limit") != "10" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"success":true,"data":{"items":[]}}`))
	}
	main := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mainHits++
		check(w, r, "solana")
	}))
	defer main.Close()
	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		publicHits++
		check(w, r, "bsc")
	}))
	defer public.Close()

	c := testClient(main.URL, public.URL)
	if _, err := c.TopTraders(context.Background(), "0xabc", "bsc"); err != nil {
		t.Fatalf("TopTraders bsc: %v", err)
	}
	if _, err := c.TopTraders(context.Background(), "addr", "solana"); err != nil {
		t.Fatalf("TopTraders solana: %v", err)
	}
	if publicHits != 1 || mainHits != 1 {
		t.Errorf("public = %d, main = %d, want 1 and 1", publicHits, mainHits)
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).Holders(context.Background(), "addr", 100, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	se, ok := err.(*upstream.StatusError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if se.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d", se.Status)
	}
}
