// Package enrichment adds contact details to a lead on a best-effort basis.
package enrichment

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"leadgen_backend/internal/leadgen/client"
	"leadgen_backend/internal/leadgen/scoring"
	"leadgen_backend/platform/logger"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// minEmailScore is the lowest finder score accepted, exclusive.
	minEmailScore = 50

	cacheTTL = 24 * time.Hour
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	legalSuffixes = []string{"corporation", "company", "gmbh", "corp", "inc", "llc", "ltd", "co"}
)

// EmailFinder looks up a work address for a person at a domain.
type EmailFinder interface {
	Configured() bool
	FindEmail(ctx context.Context, domain, firstName, lastName string) (*client.EmailMatch, error)
}

// Result is what enrichment found. Email and Phone are nil when unknown.
type Result struct {
	Email      *string
	Phone      *string
	Confidence int
}

type cacheEntry struct {
	email     *string
	expiresAt time.Time
}

// Service enriches leads. Finder answers, including misses, are cached per
// (domain, first, last) so repeated people do not spend lookup credits.
type Service struct {
	finder   EmailFinder
	log      *logger.Logger
	cache    map[string]cacheEntry
	cacheMu  sync.RWMutex
	cacheTTL time.Duration
}

// New creates the service. finder may be nil.
func New(finder EmailFinder, log *logger.Logger) *Service {
	return &Service{
		finder:   finder,
		log:      log,
		cache:    make(map[string]cacheEntry),
		cacheTTL: cacheTTL,
	}
}

// EnrichLead never fails. Upstream problems are logged and yield nil fields.
// Phone lookup is not available from any configured source, so Phone is
// always nil.
func (s *Service) EnrichLead(ctx context.Context, name, company string, sourceURL *string, wantEmail, wantPhone bool) Result {
	var result Result

	switch {
	case !wantEmail:
	case s.finder == nil || !s.finder.Configured():
		s.log.Warn("email finder not configured, skipping email lookup")
	default:
		result.Email = s.lookupEmail(ctx, name, company, sourceURL)
	}

	result.Confidence = scoring.CalculateConfidenceScore(scoring.Signals{
		HasEmail:       result.Email != nil,
		HasPhone:       result.Phone != nil,
		HasLinkedInURL: sourceURL != nil && scoring.IsLinkedInURL(*sourceURL),
		HasName:        strings.TrimSpace(name) != "",
		HasCompany:     strings.TrimSpace(company) != "",
	})
	return result
}

func (s *Service) lookupEmail(ctx context.Context, name, company string, sourceURL *string) *string {
	if sourceURL == nil || strings.TrimSpace(*sourceURL) == "" {
		return nil
	}
	domain, ok := GuessDomain(company)
	if !ok {
		return nil
	}
	first, last, ok := SplitName(name)
	if !ok {
		return nil
	}

	key := domain + "|" + strings.ToLower(first) + "|" + strings.ToLower(last)
	if email, ok := s.getFromCache(key); ok {
		return email
	}

	match, err := s.finder.FindEmail(ctx, domain, first, last)
	if err != nil {
		s.log.Warn("email lookup failed", "domain", domain, "error", err)
		return nil
	}

	var email *string
	if match != nil && match.Score > minEmailScore {
		found := match.Email
		email = &found
	}
	s.setCache(key, email)
	return email
}

func (s *Service) getFromCache(key string) (*string, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	if entry.email == nil {
		return nil, true
	}
	email := *entry.email
	return &email, true
}

func (s *Service) setCache(key string, email *string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache[key] = cacheEntry{
		email:     email,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
}

// GuessDomain derives a likely web domain from a company name, e.g.
// "Acme Widgets, Inc." becomes "acmewidgets.com". Accents are folded first
// so "Société Générale" becomes "societegenerale.com".
func GuessDomain(company string) (string, bool) {
	words := strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(foldAccents(company)), " "))
	for len(words) > 1 && isLegalSuffix(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	base := strings.Join(words, "")
	if base == "" {
		return "", false
	}
	return base + ".com", true
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func isLegalSuffix(word string) bool {
	for _, suffix := range legalSuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}

// SplitName returns the first and last whitespace-separated tokens of name.
// Single-token names cannot be looked up.
func SplitName(name string) (first, last string, ok bool) {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[len(parts)-1], true
}
