// Package features resolves boolean feature flags from the process environment.
//
// Flags are addressed by dotted or colon-separated names such as
// "leadgen:mock". The name maps to an environment variable by upper-casing it,
// replacing separators with underscores and prefixing FEATURE_, so
// "leadgen:mock" reads FEATURE_LEADGEN_MOCK.
package features

import (
	"os"
	"strings"
)

// Known flag names used by the lead generation pipeline.
const (
	LeadgenMock       = "leadgen:mock"
	LeadgenBrightData = "leadgen:brightdata"
	LeadgenAdvanced   = "leadgen:advanced"
)

// Flags answers feature lookups.
type Flags interface {
	Enabled(name string) bool
}

// EnvFlags reads flags from the environment on every lookup.
type EnvFlags struct {
	lookup func(string) (string, bool)
}

// FromEnv returns flags backed by os.LookupEnv.
func FromEnv() EnvFlags {
	return EnvFlags{lookup: os.LookupEnv}
}

// Enabled reports whether the named flag is set to a truthy value.
func (f EnvFlags) Enabled(name string) bool {
	lookup := f.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	raw, ok := lookup(EnvKey(name))
	if !ok {
		return false
	}
	return truthy(raw)
}

// EnvKey returns the environment variable backing a flag name.
func EnvKey(name string) string {
	replacer := strings.NewReplacer(":", "_", ".", "_", "-", "_")
	return "FEATURE_" + strings.ToUpper(replacer.Replace(strings.TrimSpace(name)))
}

// Static is a fixed flag set, handy for tests and for pinning flags at startup.
type Static map[string]bool

// Enabled reports the stored value for name.
func (s Static) Enabled(name string) bool {
	return s[name]
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
