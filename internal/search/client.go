// Package search wraps the external web-search collaborator. Failures
// never escape as panics or abort a turn: the client returns error
// values and callers degrade to an empty search context.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errx "kirana-agent/internal/core/error"
	logx "kirana-agent/pkg/logger"
)

// Depth selects the provider-side search depth.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// Request describes one search call.
type Request struct {
	Query        string   `json:"query"`
	Depth        Depth    `json:"search_depth"`
	MaxResults   int      `json:"max_results"`
	DomainFilter []string `json:"include_domains,omitempty"`
}

// Item is one search hit.
type Item struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Result is the search payload returned to the pipeline.
type Result struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
	Items  []Item `json:"results"`
}

// Client is the external search collaborator.
type Client interface {
	Search(ctx context.Context, req Request) (*Result, error)
}

// Config for the HTTP search client, sourced from environment variables.
type Config struct {
	APIKey         string `envconfig:"TAVILY_API_KEY"`
	BaseURL        string `envconfig:"SEARCH_BASE_URL" default:"https://api.tavily.com"`
	TimeoutSeconds int    `envconfig:"SEARCH_TIMEOUT_SECONDS" default:"10"`
	MaxResults     int    `envconfig:"SEARCH_MAX_RESULTS" default:"5"`

	// Response cache; a size of 0 disables caching.
	CacheSize       int `envconfig:"SEARCH_CACHE_SIZE" default:"256"`
	CacheTTLSeconds int `envconfig:"SEARCH_CACHE_TTL_SECONDS" default:"300"`
}

// HTTPClient talks to a Tavily-compatible search API.
type HTTPClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type apiRequest struct {
	APIKey string `json:"api_key"`
	Request
	IncludeAnswer bool `json:"include_answer"`
}

// Search performs one bounded search call. Provider and transport
// failures come back as error values; the HTTP client timeout bounds the
// call even when the caller's context has no deadline.
func (c *HTTPClient) Search(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, errx.New(nil, http.StatusBadRequest, "empty search query")
	}
	if req.Depth == "" {
		req.Depth = DepthBasic
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 5
	}

	body, err := json.Marshal(apiRequest{APIKey: c.apiKey, Request: req, IncludeAnswer: true})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logx.Warn().Err(err).Str("query", req.Query).Msg("search request failed")
		return nil, errx.New(err, http.StatusBadGateway, errx.SearchErrorMessage)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logx.Warn().Int("status", resp.StatusCode).Str("body", string(snippet)).Msg("search provider returned non-200")
		return nil, errx.New(fmt.Errorf("status %d", resp.StatusCode), http.StatusBadGateway, errx.SearchErrorMessage)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errx.New(err, http.StatusBadGateway, errx.SearchErrorMessage)
	}
	out.Query = req.Query
	return &out, nil
}

var _ Client = (*HTTPClient)(nil)

// FormatContext renders a result into the plain-text block handed to the
// analysis stage. An empty string means "no search context".
func FormatContext(r *Result) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	if r.Answer != "" {
		b.WriteString(r.Answer)
		b.WriteString("\n")
	}
	for i, it := range r.Items {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, it.Title, it.Content)
	}
	return strings.TrimSpace(b.String())
}
