package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusPending, true},
		{StatusRunning, StatusRunning, true},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusError, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusError, false},
		{StatusCompleted, StatusRunning, false},
		{StatusError, StatusCompleted, false},
		{StatusError, StatusError, false},
		{StatusPending, Status("bogus"), false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIdentityKeyNormalisesCaseAndWhitespace(t *testing.T) {
	a := IdentityKey("Jane  Doe", "Acme", "CTO")
	b := IdentityKey(" jane doe ", "ACME", "cto\t")
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
	if a != "jane doe acme cto" {
		t.Fatalf("unexpected key %q", a)
	}
	if IdentityKey("Jane Doe", "Acme", "CEO") == a {
		t.Fatalf("different titles must not collide")
	}
}

func TestParsePlatform(t *testing.T) {
	cases := map[string]Platform{
		"LinkedIn":     PlatformLinkedIn,
		"x":            PlatformTwitter,
		"Twitter/X":    PlatformTwitter,
		" general web": PlatformGeneralWeb,
		"TIKTOK":       PlatformTikTok,
	}
	for in, want := range cases {
		got, ok := ParsePlatform(in)
		if !ok || got != want {
			t.Errorf("ParsePlatform(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParsePlatform("myspace"); ok {
		t.Fatalf("expected unknown platform to fail")
	}
}

func TestResultCountBounds(t *testing.T) {
	if got := (SearchParams{}).ResultCount(); got != DefaultResultCount {
		t.Fatalf("default count = %d", got)
	}
	if got := (SearchParams{Count: 500}).ResultCount(); got != MaxResultCount {
		t.Fatalf("capped count = %d", got)
	}
	if got := (SearchParams{Count: 7}).ResultCount(); got != 7 {
		t.Fatalf("count = %d", got)
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := Session{
		ID:            "s1",
		Leads:         []Lead{{ID: "l1", Tags: []string{"a"}}},
		ProvidersUsed: []string{"mock"},
	}
	c := s.Clone()
	c.Leads[0].Tags[0] = "changed"
	c.ProvidersUsed[0] = "other"

	if s.Leads[0].Tags[0] != "a" || s.ProvidersUsed[0] != "mock" {
		t.Fatalf("clone shares memory with original")
	}
}
