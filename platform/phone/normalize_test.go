package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"not a number", "not a number"},
		{"(202) 456-1111", "+12024561111"},
		{"+44 20 7031 3000", "+442070313000"},
	}

	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeForLocation(t *testing.T) {
	berlin := "Berlin, Germany"
	if got := NormalizeForLocation("030 22732152", &berlin); got != "+493022732152" {
		t.Fatalf("expected German number, got %q", got)
	}
	if got := NormalizeForLocation("(202) 456-1111", nil); got != "+12024561111" {
		t.Fatalf("expected default region, got %q", got)
	}
	unknown := "Somewhere"
	if got := NormalizeForLocation("(202) 456-1111", &unknown); got != "+12024561111" {
		t.Fatalf("unknown location must fall back to default region, got %q", got)
	}
}

func TestRegionFromLocation(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"London, United Kingdom", "GB", true},
		{"Austin, TX, US", "US", true},
		{"Paris, fr", "FR", true},
		{"Remote", "", false},
		{"Austin, ZZ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := RegionFromLocation(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("RegionFromLocation(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
