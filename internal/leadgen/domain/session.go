package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an extraction session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Rank orders statuses: pending < running < completed = error.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	case StatusCompleted, StatusError:
		return 2
	default:
		return -1
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// CanTransitionTo reports whether moving from s to next keeps the status
// sequence monotonic. Re-asserting the current non-terminal status is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() || s.IsTerminal() {
		return false
	}
	return next.Rank() >= s.Rank()
}

// RawLead is a candidate as produced by a provider, before the store assigns
// identity and timestamp.
type RawLead struct {
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Location       *string  `json:"location,omitempty"`
	SourcePlatform Platform `json:"sourcePlatform"`
	SourceURL      *string  `json:"sourceUrl,omitempty"`
	// Confidence is the provider's preliminary score, if it computed one.
	Confidence *int     `json:"confidence,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Lead is a materialised, deduplicated RawLead.
type Lead struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Email           *string   `json:"email,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	Location        *string   `json:"location,omitempty"`
	SourcePlatform  Platform  `json:"sourcePlatform"`
	SourceURL       *string   `json:"sourceUrl,omitempty"`
	ConfidenceScore int       `json:"confidenceScore"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"createdAt"`

	// Reserved for AI enrichment; no provider fills these yet.
	AIScore    *int    `json:"aiScore,omitempty"`
	AISummary  *string `json:"aiSummary,omitempty"`
	AIOutreach *string `json:"aiOutreach,omitempty"`
}

// Session is one extraction request and everything it has found so far.
type Session struct {
	ID            string       `json:"id"`
	UserID        *string      `json:"userId,omitempty"`
	Params        SearchParams `json:"params"`
	Status        Status       `json:"status"`
	Error         string       `json:"error,omitempty"`
	StartedAt     time.Time    `json:"startedAt"`
	FinishedAt    *time.Time   `json:"finishedAt,omitempty"`
	Leads         []Lead       `json:"leads"`
	ProvidersUsed []string     `json:"providersUsed"`
	Warnings      []string     `json:"warnings,omitempty"`
}

// Clone returns a deep copy that shares no slices with s.
func (s Session) Clone() Session {
	out := s
	out.Leads = make([]Lead, len(s.Leads))
	for i, l := range s.Leads {
		l.Tags = append([]string(nil), l.Tags...)
		out.Leads[i] = l
	}
	out.ProvidersUsed = append([]string(nil), s.ProvidersUsed...)
	out.Warnings = append([]string(nil), s.Warnings...)
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	if s.UserID != nil {
		u := *s.UserID
		out.UserID = &u
	}
	return out
}

// IdentityKey is the normalised (name, company, title) triple used for
// process-wide deduplication.
func IdentityKey(name, company, title string) string {
	joined := strings.Join([]string{name, company, title}, " ")
	return strings.Join(strings.Fields(strings.ToLower(joined)), " ")
}

// Key returns the identity key of the raw lead.
func (r RawLead) Key() string {
	return IdentityKey(r.Name, r.Company, r.Title)
}

// StringPtr returns a pointer to a trimmed copy of s, or nil when s is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// HasText reports whether p points at a non-blank string.
func HasText(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
