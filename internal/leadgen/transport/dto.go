// Package transport holds the request and response shapes of the lead
// generation HTTP API.
package transport

import (
	"strings"
	"time"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/platform/sanitize"
)

// StartRequest starts a new extraction session.
type StartRequest struct {
	Keywords       string `json:"keywords" validate:"max=500"`
	Location       string `json:"location" validate:"max=200"`
	Platform       string `json:"platform" validate:"required,max=32"`
	TargetRole     string `json:"targetRole" validate:"max=200"`
	Industry       string `json:"industry" validate:"max=200"`
	Count          int    `json:"count" validate:"omitempty,min=1,max=100"`
	TargetURL      string `json:"targetUrl" validate:"omitempty,url,max=2048"`
	Depth          string `json:"depth" validate:"omitempty,oneof=Standard Deep standard deep"`
	IncludeEmail   bool   `json:"includeEmail"`
	IncludePhone   bool   `json:"includePhone"`
	IncludeAddress bool   `json:"includeAddress"`
}

// ToParams normalises the request. The platform must already be parsed.
func (r StartRequest) ToParams(platform domain.Platform) domain.SearchParams {
	return domain.SearchParams{
		Keywords:       sanitize.Text(r.Keywords),
		Location:       sanitize.Text(r.Location),
		Platform:       platform,
		TargetRole:     sanitize.Text(r.TargetRole),
		Industry:       sanitize.Text(r.Industry),
		Count:          r.Count,
		TargetURL:      strings.TrimSpace(r.TargetURL),
		Depth:          domain.ParseDepth(r.Depth),
		IncludeEmail:   r.IncludeEmail,
		IncludePhone:   r.IncludePhone,
		IncludeAddress: r.IncludeAddress,
	}
}

// StartResponse is returned once the session has been queued.
type StartResponse struct {
	SessionID string `json:"sessionId"`
}

// LeadResponse is the public shape of a lead.
type LeadResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Email           *string   `json:"email,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	Location        *string   `json:"location,omitempty"`
	SourcePlatform  string    `json:"sourcePlatform"`
	SourceURL       *string   `json:"sourceUrl,omitempty"`
	ConfidenceScore int       `json:"confidenceScore"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"createdAt"`
}

// LeadsEvent is the payload of a "leads" stream event.
type LeadsEvent struct {
	Leads []LeadResponse `json:"leads"`
	Total int            `json:"total"`
}

// StatusEvent is the payload of a "status" stream event. The session's
// error message is deliberately absent.
type StatusEvent struct {
	Status domain.Status `json:"status"`
}

// SessionResponse is the public snapshot of a session.
type SessionResponse struct {
	ID            string         `json:"id"`
	Params        SessionParams  `json:"params"`
	Status        domain.Status  `json:"status"`
	StartedAt     time.Time      `json:"startedAt"`
	FinishedAt    *time.Time     `json:"finishedAt,omitempty"`
	Leads         []LeadResponse `json:"leads"`
	ProvidersUsed []string       `json:"providersUsed"`
	Warnings      []string       `json:"warnings"`
}

// SessionParams echoes the search a session was created with.
type SessionParams struct {
	Keywords     string `json:"keywords"`
	Location     string `json:"location"`
	Platform     string `json:"platform"`
	TargetRole   string `json:"targetRole"`
	Industry     string `json:"industry"`
	Count        int    `json:"count"`
	Depth        string `json:"depth"`
	IncludeEmail bool   `json:"includeEmail"`
	IncludePhone bool   `json:"includePhone"`
}

// ToLeadResponses maps stored leads to their public shape.
func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		tags := l.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, LeadResponse{
			ID:              l.ID,
			Name:            l.Name,
			Title:           l.Title,
			Company:         l.Company,
			Email:           l.Email,
			Phone:           l.Phone,
			Location:        l.Location,
			SourcePlatform:  string(l.SourcePlatform),
			SourceURL:       l.SourceURL,
			ConfidenceScore: l.ConfidenceScore,
			Tags:            tags,
			CreatedAt:       l.CreatedAt,
		})
	}
	return out
}

// ToSessionResponse maps a session snapshot to its public shape.
func ToSessionResponse(s domain.Session) SessionResponse {
	warnings := s.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	providers := s.ProvidersUsed
	if providers == nil {
		providers = []string{}
	}
	return SessionResponse{
		ID: s.ID,
		Params: SessionParams{
			Keywords:     s.Params.Keywords,
			Location:     s.Params.Location,
			Platform:     string(s.Params.Platform),
			TargetRole:   s.Params.TargetRole,
			Industry:     s.Params.Industry,
			Count:        s.Params.Count,
			Depth:        string(s.Params.Depth),
			IncludeEmail: s.Params.IncludeEmail,
			IncludePhone: s.Params.IncludePhone,
		},
		Status:        s.Status,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
		Leads:         ToLeadResponses(s.Leads),
		ProvidersUsed: providers,
		Warnings:      warnings,
	}
}
