package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"leadgen_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	exaEndpoint        = "https://api.exa.ai/search"
	exaRatePerSecond   = 5
	exaMaxSnippetChars = 1000
)

// ExaClient calls the Exa semantic search API.
type ExaClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewExaClient creates a client for the given key.
func NewExaClient(apiKey string, log *logger.Logger) *ExaClient {
	return &ExaClient{
		apiKey:     apiKey,
		baseURL:    exaEndpoint,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout * 2},
		limiter:    rate.NewLimiter(rate.Limit(exaRatePerSecond), 1),
		log:        log,
	}
}

// WithBaseURL points the client at a different endpoint.
func (c *ExaClient) WithBaseURL(u string) *ExaClient {
	c.baseURL = u
	return c
}

// Configured reports whether an API key is present.
func (c *ExaClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// SearchRequest is the subset of Exa's search body used here.
type SearchRequest struct {
	Query          string    `json:"query"`
	NumResults     int       `json:"numResults"`
	Type           string    `json:"type,omitempty"`
	Category       string    `json:"category,omitempty"`
	IncludeDomains []string  `json:"includeDomains,omitempty"`
	Contents       *Contents `json:"contents,omitempty"`
}

// Contents selects which page content Exa returns with each hit.
type Contents struct {
	Text TextOptions `json:"text"`
}

// TextOptions bounds the returned page text.
type TextOptions struct {
	MaxCharacters int `json:"maxCharacters"`
}

// SearchResult is one hit.
type SearchResult struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Author        *string `json:"author"`
	PublishedDate *string `json:"publishedDate"`
	Text          string  `json:"text"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search runs one query. Snippet text is requested alongside the hits.
func (c *ExaClient) Search(ctx context.Context, in SearchRequest) ([]SearchResult, error) {
	if !c.Configured() {
		return nil, errors.New("exa api key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if in.Type == "" {
		in.Type = "auto"
	}
	if in.Contents == nil {
		in.Contents = &Contents{Text: TextOptions{MaxCharacters: exaMaxSnippetChars}}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode exa request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError("exa", "search", 0, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.UpstreamError("exa", "search", resp.StatusCode, ErrRateLimited)
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("exa status %d", resp.StatusCode)
		c.log.UpstreamError("exa", "search", resp.StatusCode, err)
		return nil, err
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("exa decode failed", "error", err)
		return nil, err
	}
	return payload.Results, nil
}
