package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/service"
	"leadgen_backend/internal/leadgen/store"
	"leadgen_backend/internal/leadgen/transport"
	"leadgen_backend/platform/features"
	"leadgen_backend/platform/logger"
	"leadgen_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type fakeQueue struct {
	ids []string
	err error
}

func (q *fakeQueue) Enqueue(_ context.Context, id string) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type fakePersistence struct {
	id string
}

func (f *fakePersistence) CreateSession(context.Context, domain.SearchParams, *string) (string, error) {
	return f.id, nil
}

func (f *fakePersistence) UpdateSessionStatus(context.Context, string, domain.Status, string) error {
	return nil
}

func (f *fakePersistence) AddLeads(context.Context, string, []domain.Lead) error { return nil }

func (f *fakePersistence) AddProviders(context.Context, string, []string) error { return nil }

type streamConfig struct {
	interval time.Duration
	timeout  int
	lifetime time.Duration
}

func (c streamConfig) GetStreamPollInterval() time.Duration { return c.interval }
func (c streamConfig) GetStreamSessionTimeout() int         { return c.timeout }
func (c streamConfig) GetStreamMaxDuration() time.Duration  { return c.lifetime }

type testServer struct {
	engine *gin.Engine
	store  *store.MemoryStore
	queue  *fakeQueue
}

func newTestServer(t *testing.T, flags features.Flags, persistence *fakePersistence) *testServer {
	t.Helper()
	return newTestServerWithStream(t, flags, persistence, streamConfig{interval: time.Millisecond, timeout: 30})
}

func newTestServerWithStream(t *testing.T, flags features.Flags, persistence *fakePersistence, cfg streamConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	queue := &fakeQueue{}
	var sessions *service.Sessions
	if persistence != nil {
		sessions = service.NewSessions(st, persistence, queue, flags, logger.Nop())
	} else {
		sessions = service.NewSessions(st, nil, queue, flags, logger.Nop())
	}
	h := New(sessions, validator.New(), cfg, logger.Nop())

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1/leadgen"))
	return &testServer{engine: engine, store: st, queue: queue}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestStartQueuesSession(t *testing.T) {
	srv := newTestServer(t, features.Static{}, nil)

	rec := srv.do(http.MethodPost, "/api/v1/leadgen/start", `{"platform":"linkedin","targetRole":" <b>CTO</b> ","depth":"Deep","includeEmail":true}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.SessionID == "" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if len(srv.queue.ids) != 1 || srv.queue.ids[0] != resp.SessionID {
		t.Fatalf("session not queued: %v", srv.queue.ids)
	}

	session, found, _ := srv.store.GetSession(context.Background(), resp.SessionID)
	if !found || session.Status != domain.StatusPending {
		t.Fatalf("expected pending session")
	}
	if session.Params.Depth != domain.DepthStandard {
		t.Fatalf("deep search must be downgraded without the advanced flag, got %s", session.Params.Depth)
	}
	if session.Params.Platform != domain.PlatformLinkedIn || session.Params.TargetRole != "CTO" {
		t.Fatalf("params not normalised: %+v", session.Params)
	}
}

func TestStartKeepsDeepWithAdvancedFlag(t *testing.T) {
	srv := newTestServer(t, features.Static{features.LeadgenAdvanced: true}, nil)

	rec := srv.do(http.MethodPost, "/api/v1/leadgen/start", `{"platform":"LinkedIn","depth":"Deep"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	session, _, _ := srv.store.GetSession(context.Background(), srv.queue.ids[0])
	if session.Params.Depth != domain.DepthDeep {
		t.Fatalf("expected deep, got %s", session.Params.Depth)
	}
}

func TestStartUsesPersistedID(t *testing.T) {
	srv := newTestServer(t, features.Static{}, &fakePersistence{id: "7b8c2e0a-2a41-4a8e-9d53-3c1c1a1d2f10"})

	rec := srv.do(http.MethodPost, "/api/v1/leadgen/start", `{"platform":"Twitter"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "7b8c2e0a-2a41-4a8e-9d53-3c1c1a1d2f10") {
		t.Fatalf("expected persisted id, got %s", rec.Body.String())
	}
	if _, found, _ := srv.store.GetSession(context.Background(), "7b8c2e0a-2a41-4a8e-9d53-3c1c1a1d2f10"); !found {
		t.Fatalf("store must mirror the persisted id")
	}
}

func TestStartRejectsInvalidRequests(t *testing.T) {
	srv := newTestServer(t, features.Static{}, nil)

	cases := map[string]string{
		"malformed json":   `{"platform":`,
		"missing platform": `{"targetRole":"CTO"}`,
		"unknown platform": `{"platform":"Myspace"}`,
		"count too large":  `{"platform":"LinkedIn","count":500}`,
		"bad target url":   `{"platform":"GeneralWeb","targetUrl":"not a url"}`,
		"bad depth":        `{"platform":"LinkedIn","depth":"Extreme"}`,
	}
	for name, body := range cases {
		rec := srv.do(http.MethodPost, "/api/v1/leadgen/start", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
	if len(srv.queue.ids) != 0 {
		t.Fatalf("invalid requests must not enqueue")
	}
}

func TestStartReportsQueueFailure(t *testing.T) {
	srv := newTestServer(t, features.Static{}, nil)
	srv.queue.err = errors.New("redis: connection refused")

	rec := srv.do(http.MethodPost, "/api/v1/leadgen/start", `{"platform":"LinkedIn"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
	if srv.store.Len() != 1 {
		t.Fatalf("expected the failed session to be recorded")
	}
}

func TestGetSession(t *testing.T) {
	srv := newTestServer(t, features.Static{}, nil)
	ctx := context.Background()

	if rec := srv.do(http.MethodGet, "/api/v1/leadgen/sessions/unknown", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	session, _ := srv.store.CreateSession(ctx, domain.SearchParams{Platform: domain.PlatformLinkedIn}, nil)
	_, _ = srv.store.AddLeads(ctx, session.ID, []domain.RawLead{{Name: "Ada Lovelace", Company: "Analytical", Title: "Engineer"}})
	_ = srv.store.UpdateStatus(ctx, session.ID, domain.StatusError, "pq: password authentication failed")

	rec := srv.do(http.MethodGet, "/api/v1/leadgen/sessions/"+session.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ada Lovelace") || !strings.Contains(body, `"status":"error"`) {
		t.Fatalf("unexpected body %s", body)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("session error message leaked: %s", body)
	}
}

func TestStreamRequiresSessionID(t *testing.T) {
	srv := newTestServer(t, features.Static{}, nil)
	if rec := srv.do(http.MethodGet, "/api/v1/leadgen/stream", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStreamGivesUpOnMissingSession(t *testing.T) {
	srv := newTestServer(t, features.Static{}, nil)

	rec := srv.do(http.MethodGet, "/api/v1/leadgen/stream?sessionId=never-created", "")
	body := rec.Body.String()

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if strings.Contains(body, "event:leads") {
		t.Fatalf("no leads event expected: %s", body)
	}
	if strings.Count(body, "event:status") != 1 || !strings.Contains(body, `"status":"error"`) {
		t.Fatalf("expected a single error status event, got %s", body)
	}
}

func TestStreamRelaysFinishedSession(t *testing.T) {
	srv := newTestServer(t, features.Static{}, nil)
	ctx := context.Background()

	session, _ := srv.store.CreateSession(ctx, domain.SearchParams{}, nil)
	_, _ = srv.store.AddLeads(ctx, session.ID, []domain.RawLead{
		{Name: "Grace Hopper", Company: "Navy", Title: "Rear Admiral"},
		{Name: "Alan Turing", Company: "NPL", Title: "Scientist"},
	})
	_ = srv.store.UpdateStatus(ctx, session.ID, domain.StatusCompleted, "")

	rec := srv.do(http.MethodGet, "/api/v1/leadgen/stream?sessionId="+session.ID, "")
	body := rec.Body.String()

	leadsAt := strings.Index(body, "event:leads")
	statusAt := strings.Index(body, "event:status")
	if leadsAt < 0 || statusAt < leadsAt {
		t.Fatalf("expected leads then status, got %s", body)
	}
	if !strings.Contains(body, "Grace Hopper") || !strings.Contains(body, `"status":"completed"`) {
		t.Fatalf("unexpected stream body %s", body)
	}
}

func TestStreamClosesAfterMaxLifetime(t *testing.T) {
	srv := newTestServerWithStream(t, features.Static{}, nil, streamConfig{interval: time.Millisecond, timeout: 30, lifetime: 25 * time.Millisecond})
	session, _ := srv.store.CreateSession(context.Background(), domain.SearchParams{}, nil)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- srv.do(http.MethodGet, "/api/v1/leadgen/stream?sessionId="+session.ID, "") }()

	var rec *httptest.ResponseRecorder
	select {
	case rec = <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("stream for a pending session never closed")
	}
	body := rec.Body.String()
	if strings.Count(body, "event:timeout") != 1 || !strings.Contains(body, `"status":"pending"`) {
		t.Fatalf("expected a timeout event with the last status, got %s", body)
	}
	if strings.Contains(body, `"status":"error"`) {
		t.Fatalf("lifetime cap must not report the session as failed: %s", body)
	}
}

func TestStreamStateAdvance(t *testing.T) {
	state := &streamState{maxMissing: 30}
	lead := func(name string) domain.Lead { return domain.Lead{ID: name, Name: name} }

	for i := 0; i < 30; i++ {
		if events, done := state.advance(domain.Session{}, false); events != nil || done {
			t.Fatalf("tick %d: expected silence while waiting for the session", i+1)
		}
	}

	running := domain.Session{Status: domain.StatusRunning, Leads: []domain.Lead{lead("a"), lead("b")}}
	events, done := state.advance(running, true)
	if done || len(events) != 2 || events[0].name != eventLeads || events[1].name != eventStatus {
		t.Fatalf("unexpected first events %+v", events)
	}

	if events, _ := state.advance(running, true); len(events) != 0 {
		t.Fatalf("nothing changed, expected no events, got %+v", events)
	}

	running.Leads = append(running.Leads, lead("c"))
	events, _ = state.advance(running, true)
	if len(events) != 1 {
		t.Fatalf("expected a single leads event, got %+v", events)
	}
	payload := events[0].data.(transport.LeadsEvent)
	if len(payload.Leads) != 1 || payload.Leads[0].Name != "c" || payload.Total != 3 {
		t.Fatalf("expected only the new lead, got %+v", payload)
	}

	running.Status = domain.StatusCompleted
	if _, done := state.advance(running, true); !done {
		t.Fatalf("terminal status must close the stream")
	}
}

func TestStreamStateTimesOutAfterMaxMissing(t *testing.T) {
	state := &streamState{maxMissing: 30}
	var last []streamEvent
	var done bool
	ticks := 0
	for !done {
		ticks++
		last, done = state.advance(domain.Session{}, false)
	}
	if ticks != 31 {
		t.Fatalf("expected to give up on tick 31, gave up on %d", ticks)
	}
	if len(last) != 1 || last[0].name != eventStatus || last[0].data.(transport.StatusEvent).Status != domain.StatusError {
		t.Fatalf("expected an error status event, got %+v", last)
	}
}
