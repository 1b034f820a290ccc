// Package ai turns a token bundle into a narrative fundamental analysis
// using an OpenAI-compatible chat completions API. Models are tried in
// priority order; the first usable response wins.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"tokenlens/config"
	"tokenlens/internal/model"
	"tokenlens/internal/upstream"
	"tokenlens/logger"
)

const providerName = "xai"

// errUnparseable marks a well-formed HTTP success whose body carried no
// usable text. Retrying the same model would return the same shape, so the
// generator moves straight to the next model.
var errUnparseable = errors.New("no text content in model response")

type Generator struct {
	baseURL     string
	apiKey      string
	models      []string
	maxRetries  int
	temperature float64
	maxTokens   int
	httpc       *http.Client
	log         *logger.Log
}

func NewGenerator(cfg config.AIConfig) *Generator {
	return &Generator{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		models:      cfg.Models,
		maxRetries:  cfg.MaxRetries,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpc:       &http.Client{Timeout: cfg.Timeout},
		log:         logger.GetLogger(),
	}
}

// GenerateBasicAnalysis produces the narrative analysis for a bundle in the
// requested language. It fails fast without an API key and otherwise
// returns the last model's error when every candidate failed.
func (g *Generator) GenerateBasicAnalysis(ctx context.Context, bundle *model.TokenBundle, lang string) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("AI API key is not configured")
	}
	if bundle == nil {
		return "", errors.New("no token data to analyze")
	}

	prompt := BuildPrompt(bundle, lang)
	system := SystemMessage(lang)
	log := g.log.WithComponent("ai").WithFields(logger.Fields{
		"lang":       lang,
		"prompt_len": len(prompt),
	})

	models := g.discoverModels(ctx)
	if len(models) == 0 {
		models = g.models
	}

	var lastErr error
	for _, name := range models {
		text, err := g.tryModel(ctx, name, system, prompt)
		if err == nil {
			log.WithFields(logger.Fields{"model": name, "analysis_len": len(text)}).Info("analysis generated")
			return text, nil
		}
		lastErr = err
		log.WithError(err).WithFields(logger.Fields{"model": name}).Warn("model attempt failed")
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no models configured")
	}
	return "", lastErr
}

// discoverModels asks the API for its model list. Failure is not an error;
// the configured priority list serves as well.
func (g *Generator) discoverModels(ctx context.Context) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/models", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		g.log.WithComponent("ai").WithError(err).Debug("model discovery failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var parsed struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil
	}

	models := make([]string, 0, len(parsed.Data))
	for _, raw := range parsed.Data {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			models = append(models, s)
			continue
		}
		var obj struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if json.Unmarshal(raw, &obj) == nil {
			if obj.ID != "" {
				models = append(models, obj.ID)
			} else if obj.Name != "" {
				models = append(models, obj.Name)
			}
		}
	}
	if len(models) > 0 {
		g.log.WithComponent("ai").WithFields(logger.Fields{"models": len(models)}).Debug("discovered model list")
	}
	return models
}

// tryModel sends the completion request with linear backoff. Transport
// errors and 5xx responses retry up to maxRetries times; an unparseable
// success or a 4xx client error does not, only the model fallback loop
// advances past those.
func (g *Generator) tryModel(ctx context.Context, modelName, system, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		text, err := g.complete(ctx, modelName, system, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, errUnparseable) || ctx.Err() != nil {
			break
		}
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) && statusErr.Status >= 400 && statusErr.Status < 500 {
			break
		}
	}
	return "", lastErr
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

func (g *Generator) complete(ctx context.Context, modelName, system, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: modelName,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("completion response read: %w", err)
	}
	logger.RecordUpstreamCall(providerName, len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &upstream.StatusError{Provider: providerName, Status: resp.StatusCode, Body: string(respBody)}
	}

	return extractText(respBody)
}

// extractText probes the known completion response shapes in order:
// choices[0].message.content, choices[0].text, then a top-level output.
func extractText(body []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
		Output string `json:"output"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("completion response decode: %w", err)
	}
	if len(parsed.Choices) > 0 {
		if c := parsed.Choices[0].Message.Content; c != "" {
			return c, nil
		}
		if parsed.Choices[0].Text != "" {
			return parsed.Choices[0].Text, nil
		}
	}
	if parsed.Output != "" {
		return parsed.Output, nil
	}
	return "", errUnparseable
}
