package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadgen_backend/internal/leadgen"
	"leadgen_backend/internal/scheduler"
	"leadgen_backend/platform/config"
	"leadgen_backend/platform/db"
	"leadgen_backend/platform/features"
	"leadgen_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting extraction worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the standalone worker")
	}
	if cfg.GetSessionStoreBackend() != "redis" {
		panic("LEADGEN_SESSION_STORE=redis is required for the standalone worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.IsDatabaseEnabled() {
		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
	}

	pipeline, err := leadgen.NewPipeline(cfg, pool, features.FromEnv(), log)
	if err != nil {
		log.Error("failed to initialize lead pipeline", "error", err)
		panic("failed to initialize lead pipeline: " + err.Error())
	}
	defer func() { _ = pipeline.Close() }()

	if err := withRetry(ctx, log, "redis session store", 5, 2*time.Second, func() error {
		return pipeline.Ping(ctx)
	}); err != nil {
		log.Error("session store unreachable", "error", err)
		panic("session store unreachable: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, pipeline.Extractor, log)
	if err != nil {
		log.Error("failed to initialize extraction worker", "error", err)
		panic("failed to initialize extraction worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
