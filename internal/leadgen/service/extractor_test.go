package service

import (
	"context"
	"errors"
	"testing"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/store"
	"leadgen_backend/platform/logger"
)

type fakeRunner struct {
	err   error
	calls int
	seen  domain.Status
	st    store.Store
}

func (r *fakeRunner) Run(ctx context.Context, id string) error {
	r.calls++
	if r.st != nil {
		s, _, _ := r.st.GetSession(ctx, id)
		r.seen = s.Status
	}
	return r.err
}

type statusRecorder struct {
	statuses []domain.Status
	errs     []string
	fail     bool
}

func (p *statusRecorder) CreateSession(context.Context, domain.SearchParams, *string) (string, error) {
	return "", nil
}

func (p *statusRecorder) UpdateSessionStatus(_ context.Context, _ string, status domain.Status, errMsg string) error {
	p.statuses = append(p.statuses, status)
	p.errs = append(p.errs, errMsg)
	if p.fail {
		return errors.New("db down")
	}
	return nil
}

func (p *statusRecorder) AddLeads(context.Context, string, []domain.Lead) error { return nil }

func (p *statusRecorder) AddProviders(context.Context, string, []string) error { return nil }

func TestProcessCompletesSession(t *testing.T) {
	st := store.NewMemoryStore()
	s, _ := st.CreateSession(context.Background(), domain.SearchParams{}, nil)
	runner := &fakeRunner{st: st}
	persistence := &statusRecorder{}

	if err := NewExtractor(st, persistence, runner, logger.Nop()).Process(context.Background(), s.ID); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if runner.seen != domain.StatusRunning {
		t.Fatalf("runner must observe running status, saw %s", runner.seen)
	}
	got, _, _ := st.GetSession(context.Background(), s.ID)
	if got.Status != domain.StatusCompleted || got.FinishedAt == nil {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if len(persistence.statuses) != 2 || persistence.statuses[0] != domain.StatusRunning || persistence.statuses[1] != domain.StatusCompleted {
		t.Fatalf("unexpected persisted statuses %v", persistence.statuses)
	}
}

func TestProcessMarksErrorAndReturnsIt(t *testing.T) {
	st := store.NewMemoryStore()
	s, _ := st.CreateSession(context.Background(), domain.SearchParams{}, nil)
	boom := errors.New("provider exploded")
	persistence := &statusRecorder{}

	err := NewExtractor(st, persistence, &fakeRunner{err: boom}, logger.Nop()).Process(context.Background(), s.ID)
	if !errors.Is(err, boom) {
		t.Fatalf("expected runner error, got %v", err)
	}
	got, _, _ := st.GetSession(context.Background(), s.ID)
	if got.Status != domain.StatusError || got.Error != "provider exploded" {
		t.Fatalf("expected error status with message, got %s %q", got.Status, got.Error)
	}
	if persistence.statuses[1] != domain.StatusError || persistence.errs[1] != "provider exploded" {
		t.Fatalf("expected error mirrored, got %v %v", persistence.statuses, persistence.errs)
	}
}

func TestProcessSkipsTerminalSession(t *testing.T) {
	st := store.NewMemoryStore()
	s, _ := st.CreateSession(context.Background(), domain.SearchParams{}, nil)
	_ = st.UpdateStatus(context.Background(), s.ID, domain.StatusCompleted, "")
	runner := &fakeRunner{}

	if err := NewExtractor(st, nil, runner, logger.Nop()).Process(context.Background(), s.ID); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("redelivered job must not run again")
	}
}

func TestProcessIgnoresPersistenceFailures(t *testing.T) {
	st := store.NewMemoryStore()
	s, _ := st.CreateSession(context.Background(), domain.SearchParams{}, nil)

	err := NewExtractor(st, &statusRecorder{fail: true}, &fakeRunner{}, logger.Nop()).Process(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("persistence failure leaked: %v", err)
	}
	got, _, _ := st.GetSession(context.Background(), s.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
}
