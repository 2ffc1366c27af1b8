// Package service drives one extraction session through its lifecycle.
package service

import (
	"context"
	"fmt"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/repository"
	"leadgen_backend/internal/leadgen/store"
	"leadgen_backend/platform/logger"
)

// Runner executes providers for a session.
type Runner interface {
	Run(ctx context.Context, sessionID string) error
}

// Extractor moves a session pending -> running -> completed or error. It is
// the processor behind both the durable queue worker and the in-process
// fallback, so both paths share the same transitions.
type Extractor struct {
	store       store.Store
	persistence repository.Persistence
	runner      Runner
	log         *logger.Logger
}

// NewExtractor wires the processor. persistence may be nil.
func NewExtractor(st store.Store, persistence repository.Persistence, runner Runner, log *logger.Logger) *Extractor {
	return &Extractor{store: st, persistence: persistence, runner: runner, log: log}
}

// Process runs the session. The runner's error is returned after the session
// has been marked as failed, so the caller's queue can account for it.
func (e *Extractor) Process(ctx context.Context, sessionID string) error {
	log := e.log.WithSessionID(sessionID)

	session, found, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if found && session.Status.IsTerminal() {
		log.Info("session already finished, skipping redelivery", "status", session.Status)
		return nil
	}

	e.setStatus(ctx, log, sessionID, domain.StatusRunning, "")
	log.Info("extraction started")

	if err := e.runner.Run(ctx, sessionID); err != nil {
		e.setStatus(ctx, log, sessionID, domain.StatusError, err.Error())
		log.Error("extraction failed", "error", err)
		return err
	}

	e.setStatus(ctx, log, sessionID, domain.StatusCompleted, "")
	log.Info("extraction completed")
	return nil
}

func (e *Extractor) setStatus(ctx context.Context, log *logger.Logger, sessionID string, status domain.Status, errMsg string) {
	if err := e.store.UpdateStatus(ctx, sessionID, status, errMsg); err != nil {
		log.Error("failed to update session status", "status", status, "error", err)
	}
	if e.persistence == nil {
		return
	}
	if err := e.persistence.UpdateSessionStatus(ctx, sessionID, status, errMsg); err != nil {
		log.DatabaseError("update session status", err)
	}
}
