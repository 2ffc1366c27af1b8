package providers

import (
	"context"
	"fmt"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/repository"
	"leadgen_backend/internal/leadgen/scoring"
	"leadgen_backend/internal/leadgen/store"
	"leadgen_backend/platform/apperr"
	"leadgen_backend/platform/logger"
)

// WarningNoProviders is recorded on a session no provider could serve.
const WarningNoProviders = "no providers matched"

// Runner executes the active providers for one session.
type Runner struct {
	registry    *Registry
	store       store.Store
	persistence repository.Persistence
	log         *logger.Logger
}

// NewRunner wires a runner. persistence may be nil.
func NewRunner(registry *Registry, st store.Store, persistence repository.Persistence, log *logger.Logger) *Runner {
	return &Runner{registry: registry, store: st, persistence: persistence, log: log}
}

// Run executes every provider that supports the session's parameters, one
// after another in registry order, appending scored batches as they arrive.
// A missing session is an error; provider errors abort the run.
func (r *Runner) Run(ctx context.Context, sessionID string) error {
	log := r.log.WithSessionID(sessionID)

	session, found, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !found {
		return apperr.NotFound("session not found").WithOp("providers.Run")
	}
	params := session.Params

	active := r.registry.Supporting(params)
	if len(active) == 0 {
		log.Warn("no providers support the search", "platform", params.Platform)
		return r.store.AddWarning(ctx, sessionID, WarningNoProviders)
	}

	ids := IDs(active)
	if err := r.store.AddProviders(ctx, sessionID, ids); err != nil {
		return fmt.Errorf("record providers: %w", err)
	}
	if r.persistence != nil {
		if err := r.persistence.AddProviders(ctx, sessionID, ids); err != nil {
			log.DatabaseError("add providers", err)
		}
	}

	for _, p := range active {
		plog := log.WithProvider(p.ID())
		plog.Info("provider started")

		total := 0
		emit := func(batch []domain.RawLead) error {
			n, err := r.appendBatch(ctx, sessionID, params, batch, plog)
			total += n
			return err
		}

		if sp, ok := p.(StreamingProvider); ok {
			err = sp.FetchStream(ctx, params, emit)
		} else {
			var leads []domain.RawLead
			leads, err = p.Fetch(ctx, params)
			if err == nil {
				err = emit(leads)
			}
		}
		if err != nil {
			return fmt.Errorf("provider %s: %w", p.ID(), err)
		}
		plog.Info("provider finished", "accepted", total)
	}
	return nil
}

func (r *Runner) appendBatch(ctx context.Context, sessionID string, params domain.SearchParams, batch []domain.RawLead, log *logger.Logger) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	accepted, err := r.store.AddLeads(ctx, sessionID, scoring.Apply(batch, params))
	if err != nil {
		return 0, fmt.Errorf("append leads: %w", err)
	}

	if r.persistence != nil && len(accepted) > 0 {
		if err := r.persistence.AddLeads(ctx, sessionID, accepted); err != nil {
			log.DatabaseError("add leads", err)
		}
	}
	return len(accepted), nil
}
