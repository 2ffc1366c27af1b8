package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/providers"
	"leadgen_backend/internal/leadgen/service"
	"leadgen_backend/internal/leadgen/store"
	"leadgen_backend/platform/features"
	"leadgen_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type fakeProcessor struct {
	mu    sync.Mutex
	ids   []string
	err   error
	panic bool
}

func (p *fakeProcessor) Process(_ context.Context, id string) error {
	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.mu.Unlock()
	if p.panic {
		panic("boom")
	}
	return p.err
}

type schedulerConfig struct {
	redisURL string
}

func (c schedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c schedulerConfig) GetAsynqQueueName() string { return "lead-extraction" }
func (c schedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestExtractTaskPayload(t *testing.T) {
	task, err := NewExtractTask(ExtractPayload{SessionID: "abc"})
	if err != nil {
		t.Fatalf("NewExtractTask returned error: %v", err)
	}
	if task.Type() != TaskLeadgenExtract {
		t.Fatalf("unexpected type %q", task.Type())
	}
	if string(task.Payload()) != `{"sessionId":"abc"}` {
		t.Fatalf("unexpected payload %s", task.Payload())
	}

	if _, err := NewExtractTask(ExtractPayload{}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
	if _, err := ParseExtractPayload(asynq.NewTask(TaskLeadgenExtract, []byte(`{}`))); err == nil {
		t.Fatalf("expected error for payload without session id")
	}
}

func TestClientEnqueueStoresPendingTask(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newClientWithOpt(asynq.RedisClientOpt{Addr: mr.Addr()}, "lead-extraction")
	defer client.Close()

	if err := client.Enqueue(context.Background(), "session-1"); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	taskKey := "asynq:{lead-extraction}:t:session-1"
	if !mr.Exists(taskKey) {
		t.Fatalf("expected task hash %s", taskKey)
	}
	if state := mr.HGet(taskKey, "state"); state != "pending" {
		t.Fatalf("expected pending task, got %q", state)
	}
	pending, err := mr.List("asynq:{lead-extraction}:pending")
	if err != nil || len(pending) != 1 || pending[0] != "session-1" {
		t.Fatalf("unexpected pending list %v, %v", pending, err)
	}

	if err := client.Enqueue(context.Background(), "session-1"); err != nil {
		t.Fatalf("duplicate enqueue must be a no-op, got %v", err)
	}
	pending, _ = mr.List("asynq:{lead-extraction}:pending")
	if len(pending) != 1 {
		t.Fatalf("duplicate enqueue added a task: %v", pending)
	}
}

func TestNewQueueSelectsBackend(t *testing.T) {
	q, err := NewQueue(schedulerConfig{}, &fakeProcessor{}, logger.Nop())
	if err != nil {
		t.Fatalf("NewQueue returned error: %v", err)
	}
	if _, ok := q.(*InProcessQueue); !ok {
		t.Fatalf("expected in-process queue without redis, got %T", q)
	}
	_ = q.Close()

	mr := miniredis.RunT(t)
	q, err = NewQueue(schedulerConfig{redisURL: "redis://" + mr.Addr()}, &fakeProcessor{}, logger.Nop())
	if err != nil {
		t.Fatalf("NewQueue returned error: %v", err)
	}
	if _, ok := q.(*Client); !ok {
		t.Fatalf("expected asynq client with redis, got %T", q)
	}
	_ = q.Close()
}

func TestInProcessQueueRunsAndRecovers(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("failed")}
	q := NewInProcessQueue(proc, logger.Nop())
	_ = q.Enqueue(context.Background(), "a")
	_ = q.Enqueue(context.Background(), "b")
	q.Wait()

	sort.Strings(proc.ids)
	if len(proc.ids) != 2 || proc.ids[0] != "a" || proc.ids[1] != "b" {
		t.Fatalf("unexpected processed ids %v", proc.ids)
	}

	panicking := NewInProcessQueue(&fakeProcessor{panic: true}, logger.Nop())
	_ = panicking.Enqueue(context.Background(), "c")
	panicking.Wait()

	_ = q.Close()
	if err := q.Enqueue(context.Background(), "d"); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestInProcessQueueDetachesFromRequestContext(t *testing.T) {
	proc := &fakeProcessor{}
	q := NewInProcessQueue(proc, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, "a"); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	q.Wait()
	if len(proc.ids) != 1 {
		t.Fatalf("job must run after the request context ends")
	}
}

func TestWorkerHandleExtract(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("runner failed")}
	w := &Worker{processor: proc, log: logger.Nop()}

	task, _ := NewExtractTask(ExtractPayload{SessionID: "s1"})
	if err := w.handleExtract(context.Background(), task); err == nil || err.Error() != "runner failed" {
		t.Fatalf("expected processor error to propagate, got %v", err)
	}

	err := w.handleExtract(context.Background(), asynq.NewTask(TaskLeadgenExtract, []byte(`not json`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for bad payload, got %v", err)
	}
}

func extractionStack(t *testing.T) (store.Store, *service.Extractor) {
	t.Helper()
	st := store.NewMemoryStore()
	registry := providers.BuildRegistry(features.Static{features.LeadgenMock: true}, providers.Set{Mock: providers.NewMockProvider(0)})
	runner := providers.NewRunner(registry, st, nil, logger.Nop())
	return st, service.NewExtractor(st, nil, runner, logger.Nop())
}

func leadKeys(s domain.Session) []string {
	keys := make([]string, 0, len(s.Leads))
	for _, l := range s.Leads {
		keys = append(keys, domain.IdentityKey(l.Name, l.Company, l.Title))
	}
	sort.Strings(keys)
	return keys
}

func TestQueuePathsProduceSameLeads(t *testing.T) {
	params := domain.SearchParams{TargetRole: "Founder", Platform: domain.PlatformLinkedIn, IncludeEmail: true}
	ctx := context.Background()

	inStore, inExtractor := extractionStack(t)
	inSession, _ := inStore.CreateSession(ctx, params, nil)
	q := NewInProcessQueue(inExtractor, logger.Nop())
	_ = q.Enqueue(ctx, inSession.ID)
	q.Wait()

	durableStore, durableExtractor := extractionStack(t)
	durableSession, _ := durableStore.CreateSession(ctx, params, nil)
	mr := miniredis.RunT(t)
	client := newClientWithOpt(asynq.RedisClientOpt{Addr: mr.Addr()}, "lead-extraction")
	defer client.Close()
	if err := client.Enqueue(ctx, durableSession.ID); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	// Deliver the job the way the asynq server would.
	task, _ := NewExtractTask(ExtractPayload{SessionID: durableSession.ID})
	w := &Worker{processor: durableExtractor, log: logger.Nop()}
	if err := w.handleExtract(ctx, task); err != nil {
		t.Fatalf("handleExtract returned error: %v", err)
	}

	a, _, _ := inStore.GetSession(ctx, inSession.ID)
	b, _, _ := durableStore.GetSession(ctx, durableSession.ID)
	if a.Status != domain.StatusCompleted || b.Status != domain.StatusCompleted {
		t.Fatalf("expected both completed, got %s and %s", a.Status, b.Status)
	}
	ka, kb := leadKeys(a), leadKeys(b)
	if len(ka) == 0 || len(ka) != len(kb) {
		t.Fatalf("lead counts differ: %d vs %d", len(ka), len(kb))
	}
	for i := range ka {
		if ka[i] != kb[i] {
			t.Fatalf("lead sets differ at %d: %q vs %q", i, ka[i], kb[i])
		}
	}
}

type fakePruner struct {
	cutoffs []time.Time
}

func (p *fakePruner) PruneFinished(cutoff time.Time) int {
	p.cutoffs = append(p.cutoffs, cutoff)
	return 1
}

func TestSessionSweeperUsesRetention(t *testing.T) {
	pruner := &fakePruner{}
	sweeper := NewSessionSweeper(pruner, logger.Nop(), time.Hour, 2*time.Hour)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return fixed }

	if removed := sweeper.sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if !pruner.cutoffs[0].Equal(fixed.Add(-2 * time.Hour)) {
		t.Fatalf("unexpected cutoff %v", pruner.cutoffs[0])
	}
}

func TestSessionSweeperPrunesMemoryStore(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	done, _ := st.CreateSession(ctx, domain.SearchParams{}, nil)
	live, _ := st.CreateSession(ctx, domain.SearchParams{}, nil)
	_ = st.UpdateStatus(ctx, done.ID, domain.StatusCompleted, "")

	sweeper := NewSessionSweeper(st, logger.Nop(), time.Hour, time.Minute)
	sweeper.now = func() time.Time { return time.Now().Add(time.Hour) }
	sweeper.sweep()

	if _, found, _ := st.GetSession(ctx, done.ID); found {
		t.Fatalf("finished session should be pruned")
	}
	if _, found, _ := st.GetSession(ctx, live.ID); !found {
		t.Fatalf("pending session must be kept")
	}
}
