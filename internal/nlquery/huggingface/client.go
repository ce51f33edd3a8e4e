// Package huggingface answers prompts through the Hugging Face Inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/metrics"
	"github.com/EmpoweredVote/EV-CityMap/internal/nlquery"
)

const (
	// BaseURL is the Inference API prefix; the model id is appended.
	BaseURL = "https://api-inference.huggingface.co/models"

	// MaxNewTokens caps the completion length.
	MaxNewTokens = 120

	sourceName = "huggingface"
)

// Client is an HTTP client for one Inference API model.
type Client struct {
	baseURL    string
	model      string
	token      string
	httpClient *http.Client
}

var _ nlquery.Generator = (*Client)(nil)

func init() {
	nlquery.RegisterGenerator(nlquery.GeneratorHuggingFace, func(cfg nlquery.GeneratorConfig) (nlquery.Generator, error) {
		return NewClient(cfg.BaseURL, cfg.Model, cfg.Token), nil
	})
}

// NewClient creates a client. An empty baseURL uses BaseURL.
func NewClient(baseURL, model, token string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the generator name.
func (c *Client) Name() string {
	return sourceName
}

type parameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
	Temperature    float64 `json:"temperature"`
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

// Generate posts prompt to the model. Non-2xx statuses are errors; the body of a 2xx
// response is classified by nlquery.DecodeResponse.
func (c *Client) Generate(ctx context.Context, prompt string) (nlquery.Response, error) {
	payload, err := json.Marshal(request{
		Inputs: prompt,
		Parameters: parameters{
			MaxNewTokens:   MaxNewTokens,
			ReturnFullText: false,
			Temperature:    0.1,
		},
	})
	if err != nil {
		return nlquery.Response{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/" + escapeModel(c.model)
	start := time.Now()
	logger.LogRequest(sourceName, http.MethodPost, endpoint, map[string]string{"model": c.model})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nlquery.Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	metrics.OutboundDurationMs.WithLabelValues(sourceName).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "error").Inc()
		logger.LogError(sourceName, "generate", err)
		return nlquery.Response{}, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "error").Inc()
		return nlquery.Response{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "status").Inc()
		err := fmt.Errorf("inference API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
		logger.LogError(sourceName, "generate", err)
		return nlquery.Response{}, err
	}

	metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "ok").Inc()
	logger.LogResponse(sourceName, resp.StatusCode, time.Since(start), -1)
	return nlquery.DecodeResponse(body), nil
}

// escapeModel escapes each path segment of an "org/name" model id.
func escapeModel(model string) string {
	parts := strings.Split(model, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
