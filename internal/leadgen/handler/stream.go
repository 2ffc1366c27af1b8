package handler

import (
	"net/http"
	"strings"
	"time"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/transport"
	"leadgen_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	eventLeads   = "leads"
	eventStatus  = "status"
	eventTimeout = "timeout"
)

type streamEvent struct {
	name string
	data any
}

// streamState tracks what a single stream connection has already relayed.
type streamState struct {
	sent       int
	status     domain.Status
	missing    int
	maxMissing int
}

// advance turns one poll result into the events to emit. done is true once
// the connection should close.
func (s *streamState) advance(session domain.Session, found bool) (events []streamEvent, done bool) {
	if !found {
		s.missing++
		if s.missing > s.maxMissing {
			return []streamEvent{{name: eventStatus, data: transport.StatusEvent{Status: domain.StatusError}}}, true
		}
		return nil, false
	}
	s.missing = 0

	if len(session.Leads) > s.sent {
		fresh := session.Leads[s.sent:]
		s.sent = len(session.Leads)
		events = append(events, streamEvent{name: eventLeads, data: transport.LeadsEvent{
			Leads: transport.ToLeadResponses(fresh),
			Total: s.sent,
		}})
	}
	if session.Status != s.status {
		s.status = session.Status
		events = append(events, streamEvent{name: eventStatus, data: transport.StatusEvent{Status: session.Status}})
	}
	return events, session.Status.IsTerminal()
}

// Stream relays a session's progress as server-sent events until the session
// finishes or the client goes away. It also closes when the session never
// shows up, and after maxLifetime with a timeout event carrying the last
// relayed status so the client can reconnect.
func (h *Handler) Stream(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if sessionID == "" {
		httpkit.Error(c, http.StatusBadRequest, "sessionId is required", nil)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	log := h.log.WithContext(c.Request.Context()).WithSessionID(sessionID)
	state := &streamState{maxMissing: h.maxMissing}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	lifetime := time.NewTimer(h.maxLifetime)
	defer lifetime.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("stream client disconnected")
			return
		case <-lifetime.C:
			c.SSEvent(eventTimeout, transport.StatusEvent{Status: state.status})
			c.Writer.Flush()
			log.Info("stream lifetime reached", "status", state.status, "leads", state.sent)
			return
		case <-ticker.C:
		}

		session, found, err := h.sessions.Lookup(ctx, sessionID)
		if err != nil {
			log.Warn("stream poll failed", "error", err)
			found = false
		}

		events, done := state.advance(session, found)
		for _, ev := range events {
			c.SSEvent(ev.name, ev.data)
		}
		if len(events) > 0 {
			c.Writer.Flush()
		}
		if done {
			log.Info("stream closed", "status", state.status, "leads", state.sent, "missing_ticks", state.missing)
			return
		}
	}
}
