package service

import (
	"context"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/repository"
	"leadgen_backend/internal/leadgen/store"
	"leadgen_backend/platform/apperr"
	"leadgen_backend/platform/features"
	"leadgen_backend/platform/logger"
)

// Enqueuer hands a session to whichever queue backend is configured.
type Enqueuer interface {
	Enqueue(ctx context.Context, sessionID string) error
}

// Sessions creates extraction sessions and serves their snapshots.
type Sessions struct {
	store       store.Store
	persistence repository.Persistence
	queue       Enqueuer
	flags       features.Flags
	log         *logger.Logger
}

// NewSessions wires the session service. persistence may be nil.
func NewSessions(st store.Store, persistence repository.Persistence, queue Enqueuer, flags features.Flags, log *logger.Logger) *Sessions {
	return &Sessions{store: st, persistence: persistence, queue: queue, flags: flags, log: log}
}

// Start records a new session and queues it for extraction. When durable
// persistence is configured it allocates the id, and the store mirrors it.
func (s *Sessions) Start(ctx context.Context, params domain.SearchParams, userID *string) (string, error) {
	if params.Depth == domain.DepthDeep && !s.flags.Enabled(features.LeadgenAdvanced) {
		params.Depth = domain.DepthStandard
	}
	if params.Depth == "" {
		params.Depth = domain.DepthStandard
	}

	var (
		session domain.Session
		err     error
	)
	if s.persistence != nil {
		id, perr := s.persistence.CreateSession(ctx, params, userID)
		if perr != nil {
			s.log.DatabaseError("create session", perr)
			return "", apperr.Unavailable("could not create session", perr).WithOp("leadgen.Start")
		}
		session, err = s.store.CreateSessionWithID(ctx, id, params, userID)
	} else {
		session, err = s.store.CreateSession(ctx, params, userID)
	}
	if err != nil {
		return "", apperr.Unavailable("session store unavailable", err).WithOp("leadgen.Start")
	}

	log := s.log.WithContext(ctx).WithSessionID(session.ID)
	if err := s.queue.Enqueue(ctx, session.ID); err != nil {
		log.Error("failed to enqueue extraction", "error", err)
		s.markFailed(ctx, log, session.ID, "could not enqueue extraction")
		return "", apperr.Unavailable("extraction queue unavailable", err).WithOp("leadgen.Start")
	}

	log.Info("extraction queued", "platform", params.Platform, "depth", params.Depth)
	return session.ID, nil
}

// Get returns a snapshot of the session.
func (s *Sessions) Get(ctx context.Context, id string) (domain.Session, error) {
	session, found, err := s.store.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, apperr.Unavailable("session store unavailable", err).WithOp("leadgen.Get")
	}
	if !found {
		return domain.Session{}, apperr.NotFound("session not found").WithOp("leadgen.Get")
	}
	return session, nil
}

// Lookup is Get without the not-found error, for pollers that expect a
// session to appear later.
func (s *Sessions) Lookup(ctx context.Context, id string) (domain.Session, bool, error) {
	return s.store.GetSession(ctx, id)
}

func (s *Sessions) markFailed(ctx context.Context, log *logger.Logger, id, msg string) {
	if err := s.store.UpdateStatus(ctx, id, domain.StatusError, msg); err != nil {
		log.Error("failed to update session status", "error", err)
	}
	if s.persistence == nil {
		return
	}
	if err := s.persistence.UpdateSessionStatus(ctx, id, domain.StatusError, msg); err != nil {
		log.DatabaseError("update session status", err)
	}
}
