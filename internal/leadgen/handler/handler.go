package handler

import (
	"strings"
	"time"

	"leadgen_backend/internal/leadgen/domain"
	"leadgen_backend/internal/leadgen/service"
	"leadgen_backend/internal/leadgen/transport"
	"leadgen_backend/platform/apperr"
	"leadgen_backend/platform/config"
	"leadgen_backend/platform/httpkit"
	"leadgen_backend/platform/logger"
	"leadgen_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	defaultPollInterval   = time.Second
	defaultSessionTimeout = 30
	defaultStreamLifetime = 30 * time.Minute
)

// Handler serves the lead generation endpoints.
type Handler struct {
	sessions     *service.Sessions
	val          *validator.Validator
	pollInterval time.Duration
	maxMissing   int
	maxLifetime  time.Duration
	log          *logger.Logger
}

// New creates the handler. Zero stream settings fall back to a one second
// poll, a 30 tick wait for the session to appear and a 30 minute cap on one
// stream connection.
func New(sessions *service.Sessions, val *validator.Validator, cfg config.StreamConfig, log *logger.Logger) *Handler {
	h := &Handler{
		sessions:     sessions,
		val:          val,
		pollInterval: defaultPollInterval,
		maxMissing:   defaultSessionTimeout,
		maxLifetime:  defaultStreamLifetime,
		log:          log,
	}
	if cfg != nil {
		if d := cfg.GetStreamPollInterval(); d > 0 {
			h.pollInterval = d
		}
		if n := cfg.GetStreamSessionTimeout(); n > 0 {
			h.maxMissing = n
		}
		if d := cfg.GetStreamMaxDuration(); d > 0 {
			h.maxLifetime = d
		}
	}
	return h
}

// RegisterRoutes mounts the endpoints. startGuards run in front of Start only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, startGuards ...gin.HandlerFunc) {
	rg.POST("/start", append(startGuards, h.Start)...)
	rg.GET("/stream", h.Stream)
	rg.GET("/sessions/:id", h.GetSession)
}

// Start validates the request, creates the session and queues extraction.
func (h *Handler) Start(c *gin.Context) {
	var req transport.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.FieldErrors(err)))
		return
	}
	platform, ok := domain.ParsePlatform(req.Platform)
	if !ok {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(map[string]string{"platform": "unsupported"}))
		return
	}

	id, err := h.sessions.Start(c.Request.Context(), req.ToParams(platform), httpkit.OptionalUserID(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Accepted(c, transport.StartResponse{SessionID: id})
}

// GetSession returns the public snapshot of one session.
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(session))
}
