package store

import (
	"context"
	"sync"
	"time"

	"leadgen_backend/internal/leadgen/domain"

	"github.com/google/uuid"
)

// MemoryStore is the process-local Store. Build one per process and hand the
// same pointer to the worker and to the HTTP layer.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	// identities is the process-wide dedup index, shared across sessions.
	identities map[string]struct{}
	now        func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]*domain.Session),
		identities: make(map[string]struct{}),
		now:        time.Now,
	}
}

// CreateSession implements Store.
func (s *MemoryStore) CreateSession(ctx context.Context, params domain.SearchParams, userID *string) (domain.Session, error) {
	return s.CreateSessionWithID(ctx, uuid.NewString(), params, userID)
}

// CreateSessionWithID implements Store. An existing session with the same id
// is replaced.
func (s *MemoryStore) CreateSessionWithID(_ context.Context, id string, params domain.SearchParams, userID *string) (domain.Session, error) {
	session := newSession(id, params, userID, s.now())

	s.mu.Lock()
	s.sessions[id] = &session
	s.mu.Unlock()

	return session.Clone(), nil
}

// GetSession implements Store.
func (s *MemoryStore) GetSession(_ context.Context, id string) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, false, nil
	}
	return session.Clone(), true, nil
}

// UpdateStatus implements Store.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status domain.Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		applyStatus(session, status, errMsg, s.now())
	}
	return nil
}

// AddProviders implements Store.
func (s *MemoryStore) AddProviders(_ context.Context, id string, providerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.ProvidersUsed = appendMissing(session.ProvidersUsed, providerIDs)
	}
	return nil
}

// AddWarning implements Store.
func (s *MemoryStore) AddWarning(_ context.Context, id string, warning string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.Warnings = appendMissing(session.Warnings, []string{warning})
	}
	return nil
}

// AddLeads implements Store. The identity check and the append happen under
// one lock, so concurrent callers can never both accept the same identity.
func (s *MemoryStore) AddLeads(_ context.Context, id string, raw []domain.RawLead) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}

	now := s.now()
	accepted := make([]domain.Lead, 0, len(raw))
	for _, r := range raw {
		key := r.Key()
		if _, dup := s.identities[key]; dup {
			continue
		}
		s.identities[key] = struct{}{}

		lead := materialize(r, now)
		session.Leads = append(session.Leads, lead)
		accepted = append(accepted, lead)
	}
	return accepted, nil
}

// PruneFinished drops terminal sessions that finished before cutoff and
// returns how many were removed. The dedup index is kept.
func (s *MemoryStore) PruneFinished(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.Status.IsTerminal() && session.FinishedAt != nil && session.FinishedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions held. Intended for diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
