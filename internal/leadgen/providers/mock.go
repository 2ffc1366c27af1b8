package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadgen_backend/internal/leadgen/domain"
)

const (
	MockProviderID = "mock"

	mockLeadCount = 25
	mockBatchSize = 5
	mockDelay     = 800 * time.Millisecond
)

var (
	mockFirstNames = []string{"Ava", "Liam", "Noah", "Emma", "Mia", "Lucas", "Zoe", "Ethan", "Nora", "Owen"}
	mockLastNames  = []string{"Carter", "Nguyen", "Patel", "Jensen", "Okafor", "Rossi", "Kim", "Silva", "Novak", "Berg"}
)

// MockProvider produces a fixed set of synthetic leads for development.
type MockProvider struct {
	delay time.Duration
}

// NewMockProvider creates the provider. delay is the pause between streamed
// batches; a negative value selects the default.
func NewMockProvider(delay time.Duration) *MockProvider {
	if delay < 0 {
		delay = mockDelay
	}
	return &MockProvider{delay: delay}
}

func (p *MockProvider) ID() string { return MockProviderID }

func (p *MockProvider) Supports(domain.SearchParams) bool { return true }

func (p *MockProvider) Fetch(_ context.Context, params domain.SearchParams) ([]domain.RawLead, error) {
	leads := make([]domain.RawLead, 0, mockLeadCount)
	for i := 0; i < mockLeadCount; i++ {
		leads = append(leads, mockLead(i, params))
	}
	return leads, nil
}

func (p *MockProvider) FetchStream(ctx context.Context, params domain.SearchParams, emit EmitFunc) error {
	leads, err := p.Fetch(ctx, params)
	if err != nil {
		return err
	}
	return streamChunks(ctx, leads, mockBatchSize, p.delay, emit)
}

func mockLead(i int, params domain.SearchParams) domain.RawLead {
	first := mockFirstNames[i%len(mockFirstNames)]
	last := mockLastNames[(i/len(mockFirstNames)+i)%len(mockLastNames)]
	company := fmt.Sprintf("Company %d", i+1)
	slug := strings.ReplaceAll(strings.ToLower(company), " ", "")

	title := strings.TrimSpace(params.TargetRole)
	switch {
	case title == "":
		title = "Professional"
	case i%3 == 0:
		title = "Senior " + title
	}

	platform := params.Platform
	if platform == "" {
		platform = domain.PlatformGeneralWeb
	}

	lead := domain.RawLead{
		Name:           first + " " + last,
		Title:          title,
		Company:        company,
		Location:       domain.StringPtr(params.Location),
		SourcePlatform: platform,
		SourceURL:      domain.StringPtr(fmt.Sprintf("https://example.com/people/%s-%s-%d", strings.ToLower(first), strings.ToLower(last), i+1)),
		Confidence:     domain.IntPtr(60 + (i%4)*5),
		Tags:           []string{"mock"},
	}
	if params.Industry != "" {
		lead.Tags = append(lead.Tags, params.Industry)
	}
	if params.IncludeEmail {
		lead.Email = domain.StringPtr(fmt.Sprintf("%s.%s@%s.com", strings.ToLower(first), strings.ToLower(last), slug))
	}
	if params.IncludePhone {
		lead.Phone = domain.StringPtr(fmt.Sprintf("+1 415 555 %04d", 100+i))
	}
	return lead
}
