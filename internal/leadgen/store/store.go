// Package store keeps extraction sessions and the leads they accumulate.
//
// A single Store instance is shared by the worker that fills sessions and the
// streaming endpoint that reads them. Mutations on an unknown session id are
// silent no-ops so a reader that polls before creation has completed never
// causes an error.
package store

import (
	"context"
	"strings"
	"time"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the session registry contract.
type Store interface {
	// CreateSession allocates a new pending session with a fresh id.
	CreateSession(ctx context.Context, params domain.SearchParams, userID *string) (domain.Session, error)
	// CreateSessionWithID mirrors a session whose id was allocated elsewhere.
	CreateSessionWithID(ctx context.Context, id string, params domain.SearchParams, userID *string) (domain.Session, error)
	// GetSession returns a snapshot of the session. found is false when the id is unknown.
	GetSession(ctx context.Context, id string) (session domain.Session, found bool, err error)
	// UpdateStatus moves the session forward. Backwards or post-terminal
	// transitions are ignored. Terminal statuses stamp the finish time.
	UpdateStatus(ctx context.Context, id string, status domain.Status, errMsg string) error
	// AddProviders appends provider ids not already recorded.
	AddProviders(ctx context.Context, id string, providerIDs []string) error
	// AddLeads materialises raw leads whose identity key has never been seen by
	// this store and appends them in order. It returns the accepted leads.
	AddLeads(ctx context.Context, id string, raw []domain.RawLead) ([]domain.Lead, error)
	// AddWarning records a structured, non-fatal problem on the session.
	AddWarning(ctx context.Context, id string, warning string) error
}

// newSession builds the initial pending state shared by both implementations.
func newSession(id string, params domain.SearchParams, userID *string, now time.Time) domain.Session {
	var owner *string
	if userID != nil && strings.TrimSpace(*userID) != "" {
		u := *userID
		owner = &u
	}
	return domain.Session{
		ID:            id,
		UserID:        owner,
		Params:        params,
		Status:        domain.StatusPending,
		StartedAt:     now,
		Leads:         []domain.Lead{},
		ProvidersUsed: []string{},
	}
}

// materialize promotes a raw lead into a stored lead.
func materialize(raw domain.RawLead, now time.Time) domain.Lead {
	score := 0
	if raw.Confidence != nil {
		score = *raw.Confidence
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var phoneNumber *string
	if domain.HasText(raw.Phone) {
		normalized := phone.NormalizeForLocation(*raw.Phone, raw.Location)
		phoneNumber = &normalized
	}

	return domain.Lead{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(raw.Name),
		Title:           strings.TrimSpace(raw.Title),
		Company:         strings.TrimSpace(raw.Company),
		Email:           trimmed(raw.Email),
		Phone:           phoneNumber,
		Location:        trimmed(raw.Location),
		SourcePlatform:  raw.SourcePlatform,
		SourceURL:       trimmed(raw.SourceURL),
		ConfidenceScore: score,
		Tags:            uniqueTags(raw.Tags),
		CreatedAt:       now,
	}
}

func applyStatus(s *domain.Session, status domain.Status, errMsg string, now time.Time) bool {
	if !s.Status.CanTransitionTo(status) {
		return false
	}
	s.Status = status
	if status == domain.StatusError {
		s.Error = errMsg
	}
	if status.IsTerminal() {
		finished := now
		s.FinishedAt = &finished
	}
	return true
}

func appendMissing(existing []string, add []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}
	for _, id := range add {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		existing = append(existing, id)
	}
	return existing
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	return domain.StringPtr(*p)
}

func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
