package repository

import (
	"context"

	"leadgen_backend/internal/leadgen/domain"
)

// Persistence is the durable copy of sessions. The in-memory or Redis store
// stays authoritative for the live pipeline; writes here are best-effort.
type Persistence interface {
	CreateSession(ctx context.Context, params domain.SearchParams, userID *string) (string, error)
	UpdateSessionStatus(ctx context.Context, id string, status domain.Status, errMsg string) error
	AddLeads(ctx context.Context, id string, leads []domain.Lead) error
	AddProviders(ctx context.Context, id string, providerIDs []string) error
}

// Ensure Repository implements Persistence
var _ Persistence = (*Repository)(nil)
