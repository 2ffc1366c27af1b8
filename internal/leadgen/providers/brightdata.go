package providers

import (
	"context"
	"strings"
	"time"

	"leadgen_backend/internal/leadgen/client"
	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/platform/logger"
)

const (
	BrightDataProviderID = "brightdata"

	brightDataPollInterval = 2 * time.Second
	brightDataMaxAttempts  = 60
	brightDataConfidence   = 75
)

// countryHints maps location fragments to the country code the dataset
// expects. Order matters: the first match wins.
var countryHints = []struct {
	fragment string
	code     string
}{
	{"united kingdom", "GB"},
	{"london", "GB"},
	{"england", "GB"},
	{"uk", "GB"},
	{"canada", "CA"},
	{"toronto", "CA"},
	{"germany", "DE"},
	{"berlin", "DE"},
	{"netherlands", "NL"},
	{"amsterdam", "NL"},
	{"france", "FR"},
	{"paris", "FR"},
	{"australia", "AU"},
	{"sydney", "AU"},
	{"india", "IN"},
	{"spain", "ES"},
	{"ireland", "IE"},
	{"dublin", "IE"},
}

// JobCollector is the part of the Bright Data client the provider needs.
type JobCollector interface {
	Configured() bool
	Trigger(ctx context.Context, inputs []client.JobSearchInput) (string, error)
	Progress(ctx context.Context, snapshotID string) (string, error)
	Snapshot(ctx context.Context, snapshotID string) ([]client.JobListing, error)
}

// BrightDataProvider collects LinkedIn job posters through a Bright Data
// dataset. Collection is asynchronous, so Fetch polls until the snapshot is
// ready or the attempt budget runs out.
type BrightDataProvider struct {
	collector   JobCollector
	interval    time.Duration
	maxAttempts int
	log         *logger.Logger
}

// BrightDataOption adjusts polling.
type BrightDataOption func(*BrightDataProvider)

// WithPolling overrides the poll interval and attempt budget.
func WithPolling(interval time.Duration, attempts int) BrightDataOption {
	return func(p *BrightDataProvider) {
		p.interval = interval
		if attempts > 0 {
			p.maxAttempts = attempts
		}
	}
}

func NewBrightDataProvider(collector JobCollector, log *logger.Logger, opts ...BrightDataOption) *BrightDataProvider {
	p := &BrightDataProvider{
		collector:   collector,
		interval:    brightDataPollInterval,
		maxAttempts: brightDataMaxAttempts,
		log:         log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *BrightDataProvider) ID() string { return BrightDataProviderID }

func (p *BrightDataProvider) Supports(params domain.SearchParams) bool {
	return params.Platform == domain.PlatformLinkedIn
}

// Fetch returns an empty slice, never an error, when the key is missing, the
// trigger fails or the snapshot is not ready in time.
func (p *BrightDataProvider) Fetch(ctx context.Context, params domain.SearchParams) ([]domain.RawLead, error) {
	if p.collector == nil || !p.collector.Configured() {
		p.log.Warn("bright data not configured, skipping provider")
		return []domain.RawLead{}, nil
	}

	keyword := strings.TrimSpace(strings.Join([]string{params.TargetRole, params.Keywords}, " "))
	snapshotID, err := p.collector.Trigger(ctx, []client.JobSearchInput{{
		Keyword:  keyword,
		Location: params.Location,
		Country:  GuessCountry(params.Location),
	}})
	if err != nil {
		p.log.Warn("bright data trigger failed", "error", err)
		return []domain.RawLead{}, nil
	}

	if !p.waitReady(ctx, snapshotID) {
		return []domain.RawLead{}, nil
	}

	listings, err := p.collector.Snapshot(ctx, snapshotID)
	if err != nil {
		p.log.Warn("bright data snapshot download failed", "snapshot_id", snapshotID, "error", err)
		return []domain.RawLead{}, nil
	}

	leads := make([]domain.RawLead, 0, len(listings))
	for _, listing := range listings {
		if lead, ok := posterLead(listing); ok {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

func (p *BrightDataProvider) waitReady(ctx context.Context, snapshotID string) bool {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := sleep(ctx, p.interval); err != nil {
			return false
		}

		status, err := p.collector.Progress(ctx, snapshotID)
		if err != nil {
			p.log.Warn("bright data progress check failed", "snapshot_id", snapshotID, "attempt", attempt, "error", err)
			continue
		}
		switch status {
		case client.SnapshotReady:
			return true
		case client.SnapshotFailed:
			p.log.Warn("bright data collection failed", "snapshot_id", snapshotID)
			return false
		}
	}
	p.log.Warn("bright data snapshot not ready in time", "snapshot_id", snapshotID, "attempts", p.maxAttempts)
	return false
}

func posterLead(listing client.JobListing) (domain.RawLead, bool) {
	if listing.JobPoster == nil || strings.TrimSpace(listing.JobPoster.Name) == "" {
		return domain.RawLead{}, false
	}
	poster := listing.JobPoster

	title := poster.Title
	if strings.TrimSpace(title) == "" {
		title = listing.JobTitle
	}
	sourceURL := poster.URL
	if strings.TrimSpace(sourceURL) == "" {
		sourceURL = listing.ApplyLink
	}
	if strings.TrimSpace(sourceURL) == "" {
		sourceURL = listing.URL
	}

	return domain.RawLead{
		Name:           poster.Name,
		Title:          title,
		Company:        listing.CompanyName,
		Location:       domain.StringPtr(listing.JobLocation),
		SourcePlatform: domain.PlatformLinkedIn,
		SourceURL:      domain.StringPtr(sourceURL),
		Confidence:     domain.IntPtr(brightDataConfidence),
		Tags:           []string{"hiring"},
	}, true
}

// GuessCountry maps a free-text location to an ISO country code, defaulting
// to US.
func GuessCountry(location string) string {
	lower := strings.ToLower(location)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	for _, hint := range countryHints {
		if strings.Contains(hint.fragment, " ") {
			if strings.Contains(lower, hint.fragment) {
				return hint.code
			}
			continue
		}
		for _, w := range words {
			if w == hint.fragment {
				return hint.code
			}
		}
	}
	return "US"
}
