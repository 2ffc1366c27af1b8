package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apphttp "leadgen_backend/internal/http"
	"leadgen_backend/internal/http/router"
	"leadgen_backend/internal/leadgen"
	"leadgen_backend/internal/scheduler"
	"leadgen_backend/platform/config"
	"leadgen_backend/platform/db"
	"leadgen_backend/platform/features"
	"leadgen_backend/platform/logger"
	"leadgen_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool := connectDatabase(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	flags := features.FromEnv()
	pipeline, err := leadgen.NewPipeline(cfg, pool, flags, log)
	if err != nil {
		log.Error("failed to initialize lead pipeline", "error", err)
		panic("failed to initialize lead pipeline: " + err.Error())
	}
	defer func() { _ = pipeline.Close() }()

	queue, err := scheduler.NewQueue(cfg, pipeline.Extractor, log)
	if err != nil {
		log.Error("failed to initialize extraction queue", "error", err)
		panic("failed to initialize extraction queue: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	if cfg.IsEmbeddedWorkerEnabled() {
		if _, err := scheduler.StartEmbedded(ctx, cfg, pipeline.Extractor, log); err != nil {
			log.Error("failed to start embedded worker", "error", err)
			panic("failed to start embedded worker: " + err.Error())
		}
	}

	if ms, ok := pipeline.MemoryStore(); ok {
		sweeper := scheduler.NewSessionSweeper(ms, log, 0, cfg.GetSessionTTL())
		go sweeper.Run(ctx)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	health := apphttp.HealthCheckers{pipeline}
	if pool != nil {
		health = append(health, pool)
	}

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			leadgen.NewModule(pipeline, queue, validator.New(), cfg, log),
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown incomplete", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// connectDatabase opens the optional Postgres mirror and applies migrations.
// It returns nil when DATABASE_URL is unset.
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) *pgxpool.Pool {
	if !cfg.IsDatabaseEnabled() {
		log.Warn("DATABASE_URL not configured; sessions are not persisted")
		return nil
	}

	var pool *pgxpool.Pool
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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		pool.Close()
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	return pool
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
