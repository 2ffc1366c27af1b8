// Package domain holds the lead generation types shared by the store, the
// providers and the HTTP layer.
package domain

import (
	"strings"
)

// Platform is the social network or web surface a search targets.
type Platform string

const (
	PlatformLinkedIn   Platform = "LinkedIn"
	PlatformTwitter    Platform = "Twitter"
	PlatformInstagram  Platform = "Instagram"
	PlatformFacebook   Platform = "Facebook"
	PlatformTikTok     Platform = "TikTok"
	PlatformYouTube    Platform = "YouTube"
	PlatformReddit     Platform = "Reddit"
	PlatformGeneralWeb Platform = "GeneralWeb"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{
	PlatformLinkedIn,
	PlatformTwitter,
	PlatformInstagram,
	PlatformFacebook,
	PlatformTikTok,
	PlatformYouTube,
	PlatformReddit,
	PlatformGeneralWeb,
}

var platformAliases = map[string]Platform{
	"linkedin":    PlatformLinkedIn,
	"twitter":     PlatformTwitter,
	"x":           PlatformTwitter,
	"twitter/x":   PlatformTwitter,
	"instagram":   PlatformInstagram,
	"facebook":    PlatformFacebook,
	"tiktok":      PlatformTikTok,
	"youtube":     PlatformYouTube,
	"reddit":      PlatformReddit,
	"generalweb":  PlatformGeneralWeb,
	"general web": PlatformGeneralWeb,
	"web":         PlatformGeneralWeb,
}

// ParsePlatform resolves display names and common aliases. The second return
// value is false for unknown input.
func ParsePlatform(raw string) (Platform, bool) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(raw))]
	return p, ok
}

// Depth controls how hard providers dig. Deep searches are gated behind the
// advanced feature flag.
type Depth string

const (
	DepthStandard Depth = "Standard"
	DepthDeep     Depth = "Deep"
)

// ParseDepth maps free text to a Depth, defaulting to Standard.
func ParseDepth(raw string) Depth {
	if strings.EqualFold(strings.TrimSpace(raw), string(DepthDeep)) {
		return DepthDeep
	}
	return DepthStandard
}

// DefaultResultCount is used when a request does not ask for a specific count.
const DefaultResultCount = 25

// MaxResultCount caps how many results a single provider call may request.
const MaxResultCount = 100

// SearchParams is the extraction request. It is copied into the session at
// creation and never mutated afterwards.
type SearchParams struct {
	Keywords       string   `json:"keywords"`
	Location       string   `json:"location"`
	Platform       Platform `json:"platform"`
	TargetRole     string   `json:"targetRole"`
	Industry       string   `json:"industry"`
	Count          int      `json:"count"`
	TargetURL      string   `json:"targetUrl,omitempty"`
	Depth          Depth    `json:"depth"`
	IncludeEmail   bool     `json:"includeEmail"`
	IncludePhone   bool     `json:"includePhone"`
	IncludeAddress bool     `json:"includeAddress"`
}

// ResultCount returns Count bounded to [1, MaxResultCount], falling back to
// DefaultResultCount when unset.
func (p SearchParams) ResultCount() int {
	switch {
	case p.Count <= 0:
		return DefaultResultCount
	case p.Count > MaxResultCount:
		return MaxResultCount
	default:
		return p.Count
	}
}

// WantsEnrichment reports whether any contact enrichment was requested.
func (p SearchParams) WantsEnrichment() bool {
	return p.IncludeEmail || p.IncludePhone
}
