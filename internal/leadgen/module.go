package leadgen

import (
	apphttp "leadgen_backend/internal/http"
	"leadgen_backend/internal/leadgen/handler"
	"leadgen_backend/internal/leadgen/service"
	"leadgen_backend/platform/config"
	"leadgen_backend/platform/httpkit"
	"leadgen_backend/platform/logger"
	"leadgen_backend/platform/validator"
)

// Module is the lead generation module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	startLimiter *httpkit.IPRateLimiter
}

// NewModule creates the HTTP module on top of an already wired pipeline.
func NewModule(p *Pipeline, queue service.Enqueuer, val *validator.Validator, cfg config.StreamConfig, log *logger.Logger) *Module {
	sessions := service.NewSessions(p.Store, p.Persistence, queue, p.Flags, log)
	return &Module{
		handler:      handler.New(sessions, val, cfg, log),
		startLimiter: httpkit.NewStartRateLimiter(log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leadgen"
}

// RegisterRoutes mounts leadgen routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Mount(m.Name()), m.startLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
