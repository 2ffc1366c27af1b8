// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	IsDatabaseEnabled() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides the Redis connection used by the session store.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq-backed extraction queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// LeadgenConfig provides API keys and knobs for the extraction pipeline.
type LeadgenConfig interface {
	GetExaAPIKey() string
	GetHunterAPIKey() string
	GetBrightDataAPIKey() string
	GetBrightDataDatasetID() string
	GetSessionStoreBackend() string
	GetSessionTTL() time.Duration
	IsEmbeddedWorkerEnabled() bool
	IsBrightDataRegistered() bool
}

// StreamConfig provides pacing for the session streaming endpoint.
type StreamConfig interface {
	GetStreamPollInterval() time.Duration
	GetStreamSessionTimeout() int
	GetStreamMaxDuration() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	ExaAPIKey            string
	HunterAPIKey         string
	BrightDataAPIKey     string
	BrightDataDatasetID  string
	SessionStoreBackend  string
	SessionTTL           time.Duration
	EmbeddedWorker       bool
	RegisterBrightData   bool
	StreamPollInterval   time.Duration
	StreamSessionTimeout int
	StreamMaxDuration    time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) IsDatabaseEnabled() bool { return c.DatabaseURL != "" }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// LeadgenConfig implementation
func (c *Config) GetExaAPIKey() string                 { return c.ExaAPIKey }
func (c *Config) GetHunterAPIKey() string              { return c.HunterAPIKey }
func (c *Config) GetBrightDataAPIKey() string          { return c.BrightDataAPIKey }
func (c *Config) GetBrightDataDatasetID() string       { return c.BrightDataDatasetID }
func (c *Config) GetSessionStoreBackend() string       { return c.SessionStoreBackend }
func (c *Config) GetSessionTTL() time.Duration         { return c.SessionTTL }
func (c *Config) IsEmbeddedWorkerEnabled() bool        { return c.EmbeddedWorker }
func (c *Config) IsBrightDataRegistered() bool         { return c.RegisterBrightData }
func (c *Config) GetStreamPollInterval() time.Duration { return c.StreamPollInterval }
func (c *Config) GetStreamSessionTimeout() int         { return c.StreamSessionTimeout }
func (c *Config) GetStreamMaxDuration() time.Duration  { return c.StreamMaxDuration }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE_NAME", "lead-extraction"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		ExaAPIKey:            getEnv("EXA_API_KEY", ""),
		HunterAPIKey:         getEnv("HUNTER_API_KEY", ""),
		BrightDataAPIKey:     getEnv("BRIGHTDATA_API_KEY", ""),
		BrightDataDatasetID:  getEnv("BRIGHTDATA_DATASET_ID", ""),
		SessionStoreBackend:  strings.ToLower(getEnv("LEADGEN_SESSION_STORE", "memory")),
		SessionTTL:           mustDuration(getEnv("LEADGEN_SESSION_TTL", "24h")),
		EmbeddedWorker:       strings.EqualFold(getEnv("LEADGEN_EMBEDDED_WORKER", "false"), "true"),
		RegisterBrightData:   strings.EqualFold(getEnv("LEADGEN_REGISTER_BRIGHTDATA", "false"), "true"),
		StreamPollInterval:   mustDuration(getEnv("LEADGEN_STREAM_POLL_INTERVAL", "1s")),
		StreamSessionTimeout: mustInt(getEnv("LEADGEN_STREAM_SESSION_TIMEOUT_TICKS", "30")),
		StreamMaxDuration:    mustDuration(getEnv("LEADGEN_STREAM_MAX_DURATION", "30m")),
	}

	if cfg.SessionStoreBackend != "memory" && cfg.SessionStoreBackend != "redis" {
		return nil, fmt.Errorf("LEADGEN_SESSION_STORE must be memory or redis, got %q", cfg.SessionStoreBackend)
	}
	if cfg.SessionStoreBackend == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when LEADGEN_SESSION_STORE is redis")
	}
	if cfg.EmbeddedWorker && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when LEADGEN_EMBEDDED_WORKER is true")
	}
	// Jobs on the durable queue would only reach a standalone worker, which
	// cannot see an in-memory store.
	if cfg.RedisURL != "" && cfg.SessionStoreBackend == "memory" && !cfg.EmbeddedWorker {
		return nil, fmt.Errorf("REDIS_URL with LEADGEN_SESSION_STORE=memory requires LEADGEN_EMBEDDED_WORKER=true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.StreamPollInterval <= 0 {
		cfg.StreamPollInterval = time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
