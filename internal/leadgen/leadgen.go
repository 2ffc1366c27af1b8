// Package leadgen wires the lead extraction pipeline and its HTTP module.
package leadgen

import (
	"context"
	"fmt"

	"leadgen_backend/internal/leadgen/client"
	"leadgen_backend/internal/leadgen/enrichment"
	"leadgen_backend/internal/leadgen/providers"
	"leadgen_backend/internal/leadgen/repository"
	"leadgen_backend/internal/leadgen/service"
	"leadgen_backend/internal/leadgen/store"
	"leadgen_backend/internal/scheduler"
	"leadgen_backend/platform/config"
	"leadgen_backend/platform/features"
	"leadgen_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// PipelineConfig combines the config interfaces the pipeline needs.
type PipelineConfig interface {
	config.LeadgenConfig
	config.RedisConfig
}

// Pipeline holds the process-wide extraction pieces. The API and the worker
// build one each; both must point at the same session store backend.
type Pipeline struct {
	Store       store.Store
	Persistence repository.Persistence
	Flags       features.Flags
	Extractor   *service.Extractor

	redis *redis.Client
}

// NewPipeline wires store, upstream clients, providers, runner and extractor.
// pool may be nil, in which case nothing is mirrored to Postgres.
func NewPipeline(cfg PipelineConfig, pool *pgxpool.Pool, flags features.Flags, log *logger.Logger) (*Pipeline, error) {
	p := &Pipeline{Flags: flags}

	switch cfg.GetSessionStoreBackend() {
	case "redis":
		rdb, err := scheduler.NewRedisClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		p.redis = rdb
		p.Store = store.NewRedisStore(rdb, cfg.GetSessionTTL())
	default:
		p.Store = store.NewMemoryStore()
	}

	if pool != nil {
		p.Persistence = repository.New(pool)
	}

	hunter := client.NewHunterClient(cfg.GetHunterAPIKey(), log)
	exa := client.NewExaClient(cfg.GetExaAPIKey(), log)
	brightData := client.NewBrightDataClient(cfg.GetBrightDataAPIKey(), cfg.GetBrightDataDatasetID(), log)

	registry := providers.BuildRegistry(flags, providers.Set{
		Mock:               providers.NewMockProvider(-1),
		Exa:                providers.NewExaProvider(exa, enrichment.New(hunter, log), -1, log),
		BrightData:         providers.NewBrightDataProvider(brightData, log),
		RegisterBrightData: cfg.IsBrightDataRegistered(),
	})
	log.Info("lead providers registered", "providers", providers.IDs(registry.Providers()), "store", cfg.GetSessionStoreBackend())

	runner := providers.NewRunner(registry, p.Store, p.Persistence, log)
	p.Extractor = service.NewExtractor(p.Store, p.Persistence, runner, log)
	return p, nil
}

// MemoryStore returns the in-memory store when that backend is active.
func (p *Pipeline) MemoryStore() (*store.MemoryStore, bool) {
	ms, ok := p.Store.(*store.MemoryStore)
	return ms, ok
}

// Ping checks the Redis session store, if one is used.
func (p *Pipeline) Ping(ctx context.Context) error {
	if p.redis == nil {
		return nil
	}
	return p.redis.Ping(ctx).Err()
}

// Close releases the Redis connection, if one was opened.
func (p *Pipeline) Close() error {
	if p.redis == nil {
		return nil
	}
	return p.redis.Close()
}
