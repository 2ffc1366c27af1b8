package scheduler

import (
	"context"
	"fmt"
	"sync"

	"leadgen_backend/platform/config"
	"leadgen_backend/platform/logger"
)

// Queue hands a session to whatever executes extractions.
type Queue interface {
	Enqueue(ctx context.Context, sessionID string) error
	Close() error
}

// NewQueue picks the durable Redis queue when a Redis URL is configured and
// the in-process fallback otherwise.
func NewQueue(cfg config.SchedulerConfig, processor Processor, log *logger.Logger) (Queue, error) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not set, running extractions in-process without durability")
		return NewInProcessQueue(processor, log), nil
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("init queue client: %w", err)
	}
	return client, nil
}

// InProcessQueue runs each job on its own goroutine in this process. Jobs are
// lost if the process dies.
type InProcessQueue struct {
	processor Processor
	log       *logger.Logger
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewInProcessQueue(processor Processor, log *logger.Logger) *InProcessQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &InProcessQueue{processor: processor, log: log, ctx: ctx, cancel: cancel}
}

// Enqueue returns immediately. The job runs detached from ctx, which usually
// belongs to the HTTP request that created the session.
func (q *InProcessQueue) Enqueue(_ context.Context, sessionID string) error {
	if err := q.ctx.Err(); err != nil {
		return fmt.Errorf("queue closed: %w", err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				q.log.Error("in-process extraction panicked", "session_id", sessionID, "panic", r)
			}
		}()

		if err := q.processor.Process(q.ctx, sessionID); err != nil {
			q.log.Error("in-process extraction failed", "session_id", sessionID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every enqueued job has returned.
func (q *InProcessQueue) Wait() {
	q.wg.Wait()
}

// Close cancels running jobs and waits for them.
func (q *InProcessQueue) Close() error {
	q.cancel()
	q.wg.Wait()
	return nil
}
