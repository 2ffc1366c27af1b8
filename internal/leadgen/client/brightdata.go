package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"leadgen_backend/platform/logger"
)

const brightDataBaseURL = "https://api.brightdata.com/datasets/v3"

// Snapshot progress states reported by Bright Data.
const (
	SnapshotRunning = "running"
	SnapshotReady   = "ready"
	SnapshotFailed  = "failed"
)

// BrightDataClient drives Bright Data dataset collections.
type BrightDataClient struct {
	apiKey     string
	datasetID  string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewBrightDataClient creates a client for one dataset.
func NewBrightDataClient(apiKey, datasetID string, log *logger.Logger) *BrightDataClient {
	return &BrightDataClient{
		apiKey:     apiKey,
		datasetID:  datasetID,
		baseURL:    brightDataBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout * 2},
		log:        log,
	}
}

// WithBaseURL points the client at a different API root.
func (c *BrightDataClient) WithBaseURL(u string) *BrightDataClient {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// Configured reports whether an API key and dataset are present.
func (c *BrightDataClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.datasetID != ""
}

// JobSearchInput is one discovery input for the LinkedIn jobs dataset.
type JobSearchInput struct {
	Keyword  string `json:"keyword"`
	Location string `json:"location"`
	Country  string `json:"country"`
}

// JobPoster is the recruiter or hiring manager attached to a listing.
type JobPoster struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// JobListing is one record in a ready snapshot.
type JobListing struct {
	JobTitle    string     `json:"job_title"`
	CompanyName string     `json:"company_name"`
	JobLocation string     `json:"job_location"`
	URL         string     `json:"url"`
	ApplyLink   string     `json:"apply_link"`
	JobPoster   *JobPoster `json:"job_poster"`
}

type triggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type progressResponse struct {
	Status string `json:"status"`
}

// Trigger starts a collection and returns its snapshot id.
func (c *BrightDataClient) Trigger(ctx context.Context, inputs []JobSearchInput) (string, error) {
	if !c.Configured() {
		return "", errors.New("bright data not configured")
	}
	body, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("encode trigger: %w", err)
	}

	params := url.Values{}
	params.Set("dataset_id", c.datasetID)
	params.Set("type", "discover_new")
	params.Set("discover_by", "keyword")
	params.Set("include_errors", "true")

	var out triggerResponse
	if err := c.do(ctx, http.MethodPost, "/trigger?"+params.Encode(), bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	if out.SnapshotID == "" {
		return "", errors.New("bright data trigger returned no snapshot id")
	}
	return out.SnapshotID, nil
}

// Progress returns the snapshot status: running, ready or failed.
func (c *BrightDataClient) Progress(ctx context.Context, snapshotID string) (string, error) {
	var out progressResponse
	if err := c.do(ctx, http.MethodGet, "/progress/"+url.PathEscape(snapshotID), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Snapshot downloads a ready snapshot.
func (c *BrightDataClient) Snapshot(ctx context.Context, snapshotID string) ([]JobListing, error) {
	var out []JobListing
	if err := c.do(ctx, http.MethodGet, "/snapshot/"+url.PathEscape(snapshotID)+"?format=json", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BrightDataClient) do(ctx context.Context, method, path string, body *bytes.Reader, out any) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError("brightdata", method+" "+path, 0, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("bright data status %d", resp.StatusCode)
		c.log.UpstreamError("brightdata", method+" "+path, resp.StatusCode, err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode bright data response: %w", err)
	}
	return nil
}
