package providers

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"leadgen_backend/internal/leadgen/client"
	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/enrichment"
	"leadgen_backend/internal/leadgen/scoring"
	"leadgen_backend/platform/logger"
	"leadgen_backend/platform/sanitize"

	"golang.org/x/sync/errgroup"
)

const (
	ExaProviderID = "exa"

	exaBatchSize        = 5
	exaDelay            = 400 * time.Millisecond
	exaEnrichParallel   = 4
	exaMaxSnippetLength = 500
)

// Searcher is the part of the Exa client the provider needs.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, in client.SearchRequest) ([]client.SearchResult, error)
}

// Enricher adds contact details to a lead.
type Enricher interface {
	EnrichLead(ctx context.Context, name, company string, sourceURL *string, wantEmail, wantPhone bool) enrichment.Result
}

var (
	linkedInCompany = regexp.MustCompile(`(?:\bat|@)\s+([A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*){0,3})`)
	twitterHandle   = regexp.MustCompile(`@([A-Za-z0-9_]{1,15})`)
	snippetLocation = regexp.MustCompile(`(?i)\b(?:location:|based in)\s*([^·|.;:\n]{2,60})`)
)

// ExaProvider finds people through Exa semantic search.
type ExaProvider struct {
	search   Searcher
	enricher Enricher
	delay    time.Duration
	log      *logger.Logger
}

// NewExaProvider wires the provider. A negative delay selects the default
// pause between streamed batches.
func NewExaProvider(search Searcher, enricher Enricher, delay time.Duration, log *logger.Logger) *ExaProvider {
	if delay < 0 {
		delay = exaDelay
	}
	return &ExaProvider{search: search, enricher: enricher, delay: delay, log: log}
}

func (p *ExaProvider) ID() string { return ExaProviderID }

func (p *ExaProvider) Supports(params domain.SearchParams) bool {
	_, ok := exaStrategies[platformOrDefault(params.Platform)]
	return ok
}

// Fetch never fails on upstream problems; it logs them and returns what it
// has.
func (p *ExaProvider) Fetch(ctx context.Context, params domain.SearchParams) ([]domain.RawLead, error) {
	if p.search == nil || !p.search.Configured() {
		p.log.Warn("exa api key not configured, skipping provider")
		return []domain.RawLead{}, nil
	}

	platform := platformOrDefault(params.Platform)
	req := BuildSearchRequest(params)
	results, err := p.search.Search(ctx, req)
	if err != nil {
		p.log.Warn("exa search failed", "platform", platform, "error", err)
		return []domain.RawLead{}, nil
	}

	leads := make([]domain.RawLead, 0, len(results))
	for _, r := range results {
		lead, ok := p.toLead(r, params, platform)
		if ok {
			leads = append(leads, lead)
		}
	}

	if params.WantsEnrichment() && (platform == domain.PlatformLinkedIn || platform == domain.PlatformGeneralWeb) && p.enricher != nil {
		p.enrich(ctx, leads, params)
	}
	return leads, nil
}

// FetchStream re-chunks the single search call into paced batches.
func (p *ExaProvider) FetchStream(ctx context.Context, params domain.SearchParams, emit EmitFunc) error {
	leads, err := p.Fetch(ctx, params)
	if err != nil {
		return err
	}
	return streamChunks(ctx, leads, exaBatchSize, p.delay, emit)
}

func (p *ExaProvider) toLead(r client.SearchResult, params domain.SearchParams, platform domain.Platform) (domain.RawLead, bool) {
	title := sanitize.Text(r.Title)
	snippet := sanitize.Truncate(sanitize.Text(r.Text), exaMaxSnippetLength)

	name, jobTitle := ExtractName(title, platform)
	if name == "" {
		return domain.RawLead{}, false
	}
	if jobTitle == "" {
		jobTitle = strings.TrimSpace(params.TargetRole)
	}

	var company string
	if platform == domain.PlatformLinkedIn {
		company = ExtractCompany(snippet)
	}

	sourceURL := domain.StringPtr(r.URL)
	lead := domain.RawLead{
		Name:           name,
		Title:          jobTitle,
		Company:        company,
		Location:       domain.StringPtr(ExtractLocation(snippet)),
		SourcePlatform: platform,
		SourceURL:      sourceURL,
		Tags:           []string{strings.ToLower(string(platform))},
	}
	lead.Confidence = domain.IntPtr(scoring.CalculateConfidenceScore(scoring.Signals{
		HasLinkedInURL: sourceURL != nil && scoring.IsLinkedInURL(*sourceURL),
		HasName:        true,
		HasCompany:     company != "",
		HasContent:     snippet != "",
	}))
	return lead, true
}

func (p *ExaProvider) enrich(ctx context.Context, leads []domain.RawLead, params domain.SearchParams) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exaEnrichParallel)
	for i := range leads {
		g.Go(func() error {
			lead := &leads[i]
			res := p.enricher.EnrichLead(gctx, lead.Name, lead.Company, lead.SourceURL, params.IncludeEmail, params.IncludePhone)
			lead.Email = res.Email
			lead.Phone = res.Phone
			lead.Confidence = domain.IntPtr(res.Confidence)
			return nil
		})
	}
	_ = g.Wait()
}

// BuildSearchRequest turns search parameters into an Exa query.
func BuildSearchRequest(params domain.SearchParams) client.SearchRequest {
	platform := platformOrDefault(params.Platform)
	strategy := exaStrategies[platform]

	req := client.SearchRequest{
		Query:      BuildQuery(params),
		NumResults: params.ResultCount(),
		Category:   strategy.Category,
	}
	if len(strategy.Domains) > 0 {
		req.IncludeDomains = append([]string(nil), strategy.Domains...)
	}
	if platform == domain.PlatformGeneralWeb {
		if host := targetHost(params.TargetURL); host != "" {
			req.IncludeDomains = []string{host}
		}
	}
	return req
}

// BuildQuery writes a natural-language query from role, industry, location
// and keywords.
func BuildQuery(params domain.SearchParams) string {
	var b strings.Builder
	role := strings.TrimSpace(params.TargetRole)
	if role == "" {
		role = "professionals"
	}
	b.WriteString(role)
	if industry := strings.TrimSpace(params.Industry); industry != "" {
		b.WriteString(" in the ")
		b.WriteString(industry)
		b.WriteString(" industry")
	}
	if location := strings.TrimSpace(params.Location); location != "" {
		b.WriteString(" based in ")
		b.WriteString(location)
	}
	if keywords := strings.TrimSpace(params.Keywords); keywords != "" {
		b.WriteString(" ")
		b.WriteString(keywords)
	}
	return b.String()
}

// ExtractName pulls a person's name, and a job title when the result title
// carries one, from a search hit title.
func ExtractName(title string, platform domain.Platform) (name, jobTitle string) {
	title = strings.TrimSpace(title)
	switch platform {
	case domain.PlatformLinkedIn:
		head, _, _ := strings.Cut(title, "|")
		parts := strings.Split(head, " - ")
		name = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			jobTitle = strings.TrimSpace(parts[1])
		}
		return name, jobTitle
	case domain.PlatformTwitter:
		if before, _, ok := strings.Cut(title, "(@"); ok && strings.TrimSpace(before) != "" {
			return strings.TrimSpace(before), ""
		}
		if m := twitterHandle.FindStringSubmatch(title); m != nil {
			return m[1], ""
		}
		return title, ""
	default:
		return title, ""
	}
}

// ExtractCompany finds "at Company" or "@ Company" in a LinkedIn snippet.
func ExtractCompany(snippet string) string {
	m := linkedInCompany.FindStringSubmatch(snippet)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractLocation finds "Location: X" or "based in X" in a snippet. Leads
// without one keep an empty location rather than the requested one.
func ExtractLocation(snippet string) string {
	m := snippetLocation.FindStringSubmatch(snippet)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func targetHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func platformOrDefault(p domain.Platform) domain.Platform {
	if p == "" {
		return domain.PlatformGeneralWeb
	}
	return p
}
