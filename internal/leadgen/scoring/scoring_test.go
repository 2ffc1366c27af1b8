package scoring

import (
	"testing"

	"leadgen_backend/internal/leadgen/domain"
)

func str(s string) *string { return &s }

func TestScoreWorkedExample(t *testing.T) {
	lead := domain.RawLead{
		Name:    "Jane Doe",
		Title:   "Senior Marketing Manager",
		Company: "Acme",
		Email:   str("x@y.com"),
	}
	params := domain.SearchParams{TargetRole: "Marketing Manager"}

	if got := Score(lead, params); got != 72 {
		t.Fatalf("Score = %d, want 72", got)
	}
}

func TestScoreComponents(t *testing.T) {
	params := domain.SearchParams{TargetRole: "cto", Location: "Austin, TX"}

	cases := []struct {
		name string
		lead domain.RawLead
		want int
	}{
		{"base only", domain.RawLead{Title: "Engineer", Company: "Acme"}, 50},
		{"provider base", domain.RawLead{Title: "Engineer", Company: "Acme", Confidence: domain.IntPtr(75)}, 75},
		{"role match", domain.RawLead{Title: "CTO", Company: "Acme"}, 55},
		{"phone", domain.RawLead{Title: "Engineer", Company: "Acme", Phone: str("+15125550100")}, 56},
		{"no company", domain.RawLead{Title: "Engineer"}, 40},
		{"location match", domain.RawLead{Title: "Engineer", Company: "Acme", Location: str("Downtown AUSTIN")}, 58},
		{"location miss", domain.RawLead{Title: "Engineer", Company: "Acme", Location: str("Dallas")}, 50},
		{"blank email ignored", domain.RawLead{Title: "Engineer", Company: "Acme", Email: str("  ")}, 50},
		{"clamped high", domain.RawLead{Title: "CTO", Company: "Acme", Email: str("a@b.c"), Confidence: domain.IntPtr(99)}, 100},
		{"clamped low", domain.RawLead{Title: "Engineer", Confidence: domain.IntPtr(3)}, 0},
	}

	for _, tc := range cases {
		if got := Score(tc.lead, params); got != tc.want {
			t.Errorf("%s: Score = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestScoreEmptyLocationNeverMatches(t *testing.T) {
	lead := domain.RawLead{Title: "x", Company: "Acme", Location: str("anywhere")}
	if got := Score(lead, domain.SearchParams{Location: " , TX"}); got != 50 {
		t.Fatalf("blank first segment must not award the location bonus, got %d", got)
	}
}

func TestScoreIsDeterministicAndBounded(t *testing.T) {
	params := domain.SearchParams{TargetRole: "Head of Growth Marketing", Location: "Berlin"}
	leads := []domain.RawLead{
		{Name: "A", Title: "Head of Growth", Company: "Acme", Email: str("a@acme.com"), Phone: str("1"), Location: str("Berlin")},
		{Name: "B", Title: "", Company: "", Confidence: domain.IntPtr(-40)},
		{Name: "C", Title: "growth marketing head of", Company: "Co", Confidence: domain.IntPtr(500)},
	}

	for _, lead := range leads {
		first := Score(lead, params)
		second := Score(lead, params)
		if first != second {
			t.Fatalf("Score not deterministic for %s: %d vs %d", lead.Name, first, second)
		}
		if first < 0 || first > 100 {
			t.Fatalf("Score out of range for %s: %d", lead.Name, first)
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	params := domain.SearchParams{TargetRole: "Sales Director", Location: "Paris"}
	base := domain.RawLead{Name: "Luc", Title: "Sales Director", Company: "Acme", Location: str("Paris")}

	withEmail := base
	withEmail.Email = str("luc@acme.fr")
	if Score(withEmail, params) < Score(base, params) {
		t.Fatalf("adding an email decreased the score")
	}

	withPhone := base
	withPhone.Phone = str("+33 1 23 45 67 89")
	if Score(withPhone, params) < Score(base, params) {
		t.Fatalf("adding a phone decreased the score")
	}

	noCompany := base
	noCompany.Company = ""
	if Score(noCompany, params) > Score(base, params) {
		t.Fatalf("removing the company increased the score")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := []domain.RawLead{{Name: "A", Title: "CTO", Company: "Acme"}}
	out := Apply(in, domain.SearchParams{TargetRole: "CTO"})

	if in[0].Confidence != nil {
		t.Fatalf("Apply mutated its input")
	}
	if out[0].Confidence == nil || *out[0].Confidence != 55 {
		t.Fatalf("unexpected applied score %v", out[0].Confidence)
	}
}

func TestCalculateConfidenceScore(t *testing.T) {
	if got := CalculateConfidenceScore(Signals{}); got != 0 {
		t.Fatalf("empty signals = %d", got)
	}
	all := Signals{HasEmail: true, HasPhone: true, HasLinkedInURL: true, HasName: true, HasCompany: true, HasContent: true}
	if got := CalculateConfidenceScore(all); got != 100 {
		t.Fatalf("all signals = %d", got)
	}
	if got := CalculateConfidenceScore(Signals{HasName: true, HasCompany: true, HasLinkedInURL: true}); got != 40 {
		t.Fatalf("profile signals = %d", got)
	}
}

func TestIsLinkedInURL(t *testing.T) {
	if !IsLinkedInURL("https://www.linkedin.com/in/jane-doe") {
		t.Fatalf("expected profile url to match")
	}
	if IsLinkedInURL("https://linkedin.com/jobs/view/1") {
		t.Fatalf("job urls are not profile urls")
	}
}
