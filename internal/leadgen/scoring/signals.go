package scoring

import (
	"strings"
)

// Signals describes which data points a provider managed to collect for a
// lead. CalculateConfidenceScore turns them into a preliminary confidence.
type Signals struct {
	HasEmail       bool
	HasPhone       bool
	HasLinkedInURL bool
	HasName        bool
	HasCompany     bool
	HasContent     bool
}

// Weights per signal. They add up to exactly 100.
const (
	signalEmail    = 30
	signalPhone    = 20
	signalLinkedIn = 20
	signalName     = 10
	signalCompany  = 10
	signalContent  = 10
)

// CalculateConfidenceScore is the preliminary score used by providers and the
// enrichment service before the search-aware Score runs.
func CalculateConfidenceScore(s Signals) int {
	score := 0
	if s.HasEmail {
		score += signalEmail
	}
	if s.HasPhone {
		score += signalPhone
	}
	if s.HasLinkedInURL {
		score += signalLinkedIn
	}
	if s.HasName {
		score += signalName
	}
	if s.HasCompany {
		score += signalCompany
	}
	if s.HasContent {
		score += signalContent
	}
	return clamp(float64(score))
}

// IsLinkedInURL reports whether u points at a LinkedIn profile or company page.
func IsLinkedInURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "linkedin.com/in/") || strings.Contains(lower, "linkedin.com/company/")
}
