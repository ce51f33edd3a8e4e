// Package opendata is a small client for the Socrata (SODA) resource API that serves
// the city's building footprint and land-use datasets.
package opendata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/cache"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/metrics"
	"golang.org/x/time/rate"
)

const sourceName = "opendata"

// ErrStatus is returned (wrapped with the code) when the source answers with a non-2xx status.
var ErrStatus = errors.New("open data request failed")

// Query narrows a dataset request. Zero values are omitted from the request.
type Query struct {
	Limit   int
	Where   string
	Timeout time.Duration
}

// Source returns the raw rows of a dataset. Each row is left undecoded so callers
// can decide per row whether its shape is usable.
type Source interface {
	Rows(ctx context.Context, datasetID string, q Query) ([]json.RawMessage, error)
}

// Client talks to a Socrata resource endpoint.
type Client struct {
	baseURL    string
	appToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.RowCache
}

var _ Source = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithCache stores successful response bodies in c.
func WithCache(c cache.RowCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithRateLimit caps outbound requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		if rps <= 0 {
			cl.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(cl *Client) { cl.httpClient = hc }
}

// NewClient creates a client for baseURL (e.g. https://data.calgary.ca/resource).
func NewClient(baseURL, appToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appToken:   appToken,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rows fetches a dataset and returns its rows.
func (c *Client) Rows(ctx context.Context, datasetID string, q Query) ([]json.RawMessage, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("$limit", strconv.Itoa(q.Limit))
	}
	if q.Where != "" {
		params.Set("$where", q.Where)
	}
	endpoint := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(datasetID))
	fullURL := endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, fullURL); ok {
			metrics.RowCacheTotal.WithLabelValues("hit").Inc()
			return DecodeRows(body)
		}
		metrics.RowCacheTotal.WithLabelValues("miss").Inc()
	}

	body, err := c.get(ctx, endpoint, fullURL, params, q.Timeout)
	if err != nil {
		return nil, err
	}

	rows, err := DecodeRows(body)
	if err != nil {
		logger.LogError(sourceName, "decode", err)
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(ctx, fullURL, body)
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, endpoint, fullURL string, params url.Values, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("open data rate limit: %w", err)
		}
	}

	start := time.Now()
	logParams := make(map[string]string, len(params))
	for k := range params {
		logParams[k] = params.Get(k)
	}
	logger.LogRequest(sourceName, http.MethodGet, endpoint, logParams)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	metrics.OutboundDurationMs.WithLabelValues(sourceName).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "error").Inc()
		logger.LogError(sourceName, "fetch", err)
		return nil, fmt.Errorf("open data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "status").Inc()
		err := fmt.Errorf("%w: status %d for %s", ErrStatus, resp.StatusCode, endpoint)
		logger.LogError(sourceName, "fetch", err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "error").Inc()
		logger.LogError(sourceName, "read", err)
		return nil, fmt.Errorf("read open data body: %w", err)
	}
	metrics.OutboundRequestsTotal.WithLabelValues(sourceName, "ok").Inc()
	logger.LogResponse(sourceName, resp.StatusCode, time.Since(start), -1)
	return body, nil
}

// DecodeRows accepts either a JSON array of rows or a GeoJSON-style object with a
// "features" array. Any other well-formed JSON value yields no rows.
func DecodeRows(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode open data: empty body")
	}

	switch trimmed[0] {
	case '[':
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode open data rows: %w", err)
		}
		return rows, nil
	case '{':
		var fc struct {
			Features json.RawMessage `json:"features"`
		}
		if err := json.Unmarshal(trimmed, &fc); err != nil {
			return nil, fmt.Errorf("decode open data object: %w", err)
		}
		var rows []json.RawMessage
		if len(fc.Features) > 0 && fc.Features[0] == '[' {
			if err := json.Unmarshal(fc.Features, &rows); err != nil {
				return nil, fmt.Errorf("decode open data features: %w", err)
			}
		}
		return rows, nil
	default:
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("decode open data: invalid JSON")
		}
		return nil, nil
	}
}
