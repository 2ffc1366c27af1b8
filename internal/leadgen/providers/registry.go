package providers

import (
	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/platform/features"
)

// Registry is the ordered, process-wide list of providers.
type Registry struct {
	providers []Provider
}

// NewRegistry keeps providers in the given order. Nil entries are skipped.
func NewRegistry(providers ...Provider) *Registry {
	list := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			list = append(list, p)
		}
	}
	return &Registry{providers: list}
}

// Set holds every provider the process can construct.
type Set struct {
	Mock       *MockProvider
	Exa        *ExaProvider
	BrightData *BrightDataProvider
	// RegisterBrightData admits Bright Data into the active list. It stays
	// out by default even when its feature flag is on.
	RegisterBrightData bool
}

// BuildRegistry applies feature flags to set: mock first when flagged, then
// Exa, then Bright Data only when both registered and flagged.
func BuildRegistry(flags features.Flags, set Set) *Registry {
	var list []Provider
	if set.Mock != nil && flags.Enabled(features.LeadgenMock) {
		list = append(list, set.Mock)
	}
	if set.Exa != nil {
		list = append(list, set.Exa)
	}
	if set.BrightData != nil && set.RegisterBrightData && flags.Enabled(features.LeadgenBrightData) {
		list = append(list, set.BrightData)
	}
	return NewRegistry(list...)
}

// Providers returns the registered providers in order.
func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// Supporting returns the providers that accept params, in registry order.
func (r *Registry) Supporting(params domain.SearchParams) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.Supports(params) {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns the provider ids in order.
func IDs(list []Provider) []string {
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID()
	}
	return ids
}
