// Package client provides HTTP clients for the upstream lead sources and the
// email finder.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"leadgen_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	hunterEndpoint     = "https://api.hunter.io/v2/email-finder"
	defaultHTTPTimeout = 15 * time.Second
	// Hunter allows 15 requests per second on paid plans; stay below it.
	hunterRatePerSecond = 10
)

// ErrRateLimited is returned when an upstream answered 429.
var ErrRateLimited = errors.New("upstream rate limited")

// HunterClient calls the Hunter.io email finder.
type HunterClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewHunterClient creates a client. An empty apiKey yields a client whose
// Configured method reports false.
func NewHunterClient(apiKey string, log *logger.Logger) *HunterClient {
	return &HunterClient{
		apiKey:     apiKey,
		baseURL:    hunterEndpoint,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(hunterRatePerSecond), hunterRatePerSecond),
		log:        log,
	}
}

// WithBaseURL points the client at a different endpoint.
func (c *HunterClient) WithBaseURL(u string) *HunterClient {
	c.baseURL = u
	return c
}

// Configured reports whether an API key is present.
func (c *HunterClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// EmailMatch is the finder's answer for one person.
type EmailMatch struct {
	Email string
	Score int
}

type hunterResponse struct {
	Data struct {
		Email *string `json:"email"`
		Score int     `json:"score"`
	} `json:"data"`
}

// FindEmail looks up the address of first last at domain. A nil match with a
// nil error means Hunter found nothing.
func (c *HunterClient) FindEmail(ctx context.Context, domain, firstName, lastName string) (*EmailMatch, error) {
	if !c.Configured() {
		return nil, errors.New("hunter api key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("domain", domain)
	params.Set("first_name", firstName)
	params.Set("last_name", lastName)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError("hunter", "email-finder", 0, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.UpstreamError("hunter", "email-finder", resp.StatusCode, ErrRateLimited)
		return nil, ErrRateLimited
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hunter status %d", resp.StatusCode)
	}

	var payload hunterResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("hunter decode failed", "error", err)
		return nil, err
	}
	if payload.Data.Email == nil || *payload.Data.Email == "" {
		return nil, nil
	}
	return &EmailMatch{Email: *payload.Data.Email, Score: payload.Data.Score}, nil
}
