// Package scoring computes the 0-100 confidence score attached to every lead.
package scoring

import (
	"math"
	"strings"

	"leadgen_backend/internal/leadgen/domain"
)

const (
	// baseScore applies when the provider did not supply a preliminary score.
	baseScore = 50.0

	roleTokenBonus = 5.0
	emailBonus     = 12.0
	phoneBonus     = 6.0
	missingCompany = -10.0
	locationBonus  = 8.0
	minScore       = 0.0
	maxScore       = 100.0
)

// Score rates how well a lead matches the search and how contactable it is.
// It is a pure function of its inputs.
func Score(lead domain.RawLead, params domain.SearchParams) int {
	score := baseScore
	if lead.Confidence != nil {
		score = float64(*lead.Confidence)
	}

	title := strings.ToLower(lead.Title)
	for _, token := range strings.Fields(strings.ToLower(params.TargetRole)) {
		if strings.Contains(title, token) {
			score += roleTokenBonus
		}
	}

	if domain.HasText(lead.Email) {
		score += emailBonus
	}
	if domain.HasText(lead.Phone) {
		score += phoneBonus
	}
	if strings.TrimSpace(lead.Company) == "" {
		score += missingCompany
	}

	if city := primaryLocation(params.Location); city != "" && lead.Location != nil {
		if strings.Contains(strings.ToLower(*lead.Location), city) {
			score += locationBonus
		}
	}

	return clamp(score)
}

// Apply scores every lead in batch and stores the result as its confidence.
// The input slice is not modified.
func Apply(batch []domain.RawLead, params domain.SearchParams) []domain.RawLead {
	out := make([]domain.RawLead, len(batch))
	for i, lead := range batch {
		lead.Confidence = domain.IntPtr(Score(lead, params))
		out[i] = lead
	}
	return out
}

// primaryLocation returns the lower-cased first comma segment, e.g. "austin"
// for "Austin, TX".
func primaryLocation(location string) string {
	first, _, _ := strings.Cut(location, ",")
	return strings.ToLower(strings.TrimSpace(first))
}

func clamp(score float64) int {
	return int(math.Round(math.Max(minScore, math.Min(maxScore, score))))
}
