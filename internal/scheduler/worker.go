package scheduler

import (
	"context"
	"fmt"
	"sync"

	"leadgen_backend/platform/config"
	"leadgen_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	defaultQueue       = "lead-extraction"
	defaultConcurrency = 5
)

// Processor runs one extraction session to completion.
type Processor interface {
	Process(ctx context.Context, sessionID string) error
}

// Worker consumes extraction jobs from Redis.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor Processor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor Processor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
		Logger: newAsynqLogger(log),
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		processor: processor,
		log:       log,
	}

	mux.HandleFunc(TaskLeadgenExtract, w.handleExtract)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("extraction worker failed to start", "error", err)
		return
	}

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("extraction worker stopped")
}

// handleExtract returns the processor's error so asynq records the failure
// and archives the task.
func (w *Worker) handleExtract(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseExtractPayload(task)
	if err != nil {
		w.log.Error("invalid extraction payload", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return w.processor.Process(ctx, payload.SessionID)
}

var embeddedOnce sync.Once

// StartEmbedded runs a worker inside the calling process. Only the first call
// per process starts one; later calls report false.
func StartEmbedded(ctx context.Context, cfg config.SchedulerConfig, processor Processor, log *logger.Logger) (bool, error) {
	started := false
	var startErr error
	embeddedOnce.Do(func() {
		w, err := NewWorker(cfg, processor, log)
		if err != nil {
			startErr = err
			return
		}
		started = true
		go w.Run(ctx)
		log.Info("embedded extraction worker started", "queue", cfg.GetAsynqQueueName())
	})
	return started, startErr
}

// asynqLogger forwards asynq's internal logging to the application logger.
type asynqLogger struct {
	log *logger.Logger
}

func newAsynqLogger(log *logger.Logger) asynq.Logger {
	return asynqLogger{log: &logger.Logger{Logger: log.With("component", "asynq")}}
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.log.Error(fmt.Sprint(args...)) }
