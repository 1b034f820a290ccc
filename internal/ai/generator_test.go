package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tokenlens/config"
	"tokenlens/internal/model"
)

type modelCall struct {
	Model string `json:"model"`
}

func testBundle(chain string) *model.TokenBundle {
	holders := int64(1234)
	return &model.TokenBundle{
		Chain: chain,
		TokenOverview: model.TokenOverview{
			Name:                       "Test Token",
			Symbol:                     "TT",
			PriceFormatted:             "$1.00",
			PriceChange24h:             "2.00%",
			CirculatingSupplyFormatted: "1.00M",
			LiquidityFormatted:         "$50.00K",
			MarketCapFormatted:         "$1.00M",
			FdvFormatted:               "$2.00M",
		},
		HolderStats: model.HolderStats{TotalHolders: &holders},
		TopTraders: []model.TopTrader{
			{
				Address: "0x1234567890abcdef",
				Tags:    []string{"bot"},
				Total:   model.TradeSide{AmountUSDFormatted: "$9.00K"},
			},
		},
	}
}

func newTestGenerator(baseURL string, models []string, maxRetries int) *Generator {
	return NewGenerator(config.AIConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Models:      models,
		Timeout:     2 * time.Second,
		MaxRetries:  maxRetries,
		Temperature: 0.7,
		MaxTokens:   600,
	})
}

func TestModelFallbackFirstSuccessWins(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req modelCall
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		calls[req.Model]++
		mu.Unlock()

		if req.Model == "model-a" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"solid analysis"}}]}`))
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, []string{"model-a", "model-b", "model-c"}, 1)
	text, err := g.GenerateBasicAnalysis(context.Background(), testBundle(model.ChainBsc), "en")
	if err != nil {
		t.Fatalf("GenerateBasicAnalysis: %v", err)
	}
	if text != "solid analysis" {
		t.Errorf("analysis = %q", text)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls["model-a"] != 2 {
		t.Errorf("model-a calls = %d, want 2 (one retry)", calls["model-a"])
	}
	if calls["model-b"] != 1 {
		t.Errorf("model-b calls = %d, want 1", calls["model-b"])
	}
	if calls["model-c"] != 0 {
		t.Errorf("model-c calls = %d, want 0 (never reached)", calls["model-c"])
	}
}

func TestUnparseableSuccessDoesNotRetry(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req modelCall
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		calls[req.Model]++
		mu.Unlock()

		if req.Model == "model-a" {
			w.Write([]byte(`{"usage":{"total_tokens":10}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"text":"legacy shape"}]}`))
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, []string{"model-a", "model-b"}, 2)
	text, err := g.GenerateBasicAnalysis(context.Background(), testBundle(model.ChainBsc), "en")
	if err != nil {
		t.Fatalf("GenerateBasicAnalysis: %v", err)
	}
	if text != "legacy shape" {
		t.Errorf("analysis = %q", text)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls["model-a"] != 1 {
		t.Errorf("model-a calls = %d, want 1 (unparseable success must not retry)", calls["model-a"])
	}
}

func TestDiscoveredModelsTakePriority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.Write([]byte(`{"data":[{"id":"served-model"}]}`))
			return
		}
		var req modelCall
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "served-model" {
			t.Errorf("model = %q, want served-model", req.Model)
		}
		w.Write([]byte(`{"output":"alt shape"}`))
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, []string{"configured-model"}, 0)
	text, err := g.GenerateBasicAnalysis(context.Background(), testBundle(model.ChainBsc), "en")
	if err != nil {
		t.Fatalf("GenerateBasicAnalysis: %v", err)
	}
	if text != "alt shape" {
		t.Errorf("analysis = %q", text)
	}
}

func TestAllModelsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, []string{"model-a", "model-b"}, 0)
	if _, err := g.GenerateBasicAnalysis(context.Background(), testBundle(model.ChainBsc), "en"); err == nil {
		t.Fatal("expected error when every model fails")
	}
}

func TestMissingAPIKey(t *testing.T) {
	g := NewGenerator(config.AIConfig{BaseURL: "http://unused", Models: []string{"m"}})
	if _, err := g.GenerateBasicAnalysis(context.Background(), testBundle(model.ChainBsc), "en"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestExtractTextShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"choices":[{"message":{"content":"primary"}}]}`, "primary"},
		{`{"choices":[{"text":"secondary"}]}`, "secondary"},
		{`{"output":"tertiary"}`, "tertiary"},
		{`{"choices":[{"message":{"content":"primary"},"text":"ignored"}]}`, "primary"},
	}
	for _, c := range cases {
		got, err := extractText([]byte(c.raw))
		if err != nil {
			t.Errorf("%s: %v", c.raw, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: got %q, want %q", c.raw, got, c.want)
		}
	}
	if _, err := extractText([]byte(`{"choices":[]}`)); err == nil {
		t.Error("empty choices should not parse")
	}
}

func TestBuildPromptMasksAddressesAndSections(t *testing.T) {
	prompt := BuildPrompt(testBundle(model.ChainBsc), "en")
	if strings.Contains(prompt, "0x1234567890abcdef") {
		t.Error("full trader address leaked into prompt")
	}
	if !strings.Contains(prompt, "0x12...cdef") {
		t.Error("masked trader address missing from prompt")
	}
	if !strings.Contains(prompt, "### Holder Analysis") {
		t.Error("holder section missing for bsc")
	}

	solPrompt := BuildPrompt(testBundle(model.ChainSolana), "en")
	if strings.Contains(solPrompt, "### Holder Analysis") {
		t.Error("solana prompt should not carry the holder section")
	}
	if !strings.Contains(solPrompt, "- Total Holders: 1234") {
		t.Error("solana prompt should carry total holders in core info")
	}

	zhPrompt := BuildPrompt(testBundle(model.ChainBsc), "zh")
	if !strings.Contains(zhPrompt, "代币核心信息") {
		t.Error("zh prompt should use the Chinese template")
	}
}

func TestClientErrorDoesNotRetry(t *testing.T) {
	var mu sync.Mutex
	completions := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		mu.Lock()
		completions++
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, []string{"model-a"}, 2)
	if _, err := g.GenerateBasicAnalysis(context.Background(), testBundle(model.ChainBsc), "en"); err == nil {
		t.Fatal("expected error from 4xx completion")
	}

	mu.Lock()
	defer mu.Unlock()
	if completions != 1 {
		t.Errorf("completion calls = %d, want 1 (client errors are not retried)", completions)
	}
}
