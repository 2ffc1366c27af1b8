// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"leadgen_backend/platform/config"
	"leadgen_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckers pings every configured dependency and stops at the first failure.
type HealthCheckers []HealthChecker

// Ping implements HealthChecker.
func (hc HealthCheckers) Ping(ctx context.Context) error {
	for _, check := range hc {
		if check == nil {
			continue
		}
		if err := check.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (DB and Redis pings).
	Health HealthChecker
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
