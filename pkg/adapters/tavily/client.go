// Package tavily implements ports.Searcher on the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultMaxResults = 3
	DefaultTimeout    = 20 * time.Second
)

// Config holds the client settings.
type Config struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	MaxResults int           `yaml:"max_results" validate:"gte=0,lte=20"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Client is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client. It returns ports.ErrNotConfigured without an API key.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("tavily: missing API key: %w", ports.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []map[string]any `json:"results"`
}

// Search implements ports.Searcher.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: c.cfg.MaxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out searchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("tavily: failed to parse response: %w", err)
	}
	return decodeResults(out.Results, c.logger)
}

// decodeResults maps provider records onto SearchResult. Unknown keys land
// in Extra; records that cannot be decoded are skipped.
func decodeResults(raw []map[string]any, logger *slog.Logger) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(raw))
	for i, item := range raw {
		var r domain.SearchResult
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &r,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(item); err != nil {
			logger.Warn("skipping malformed search result", "index", i, "err", err)
			continue
		}
		if len(r.Extra) == 0 {
			r.Extra = nil
		}
		results = append(results, r)
	}
	return results, nil
}
