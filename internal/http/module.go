package http

import (
	"leadgen_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module owns one URL prefix under /api/v1 and mounts its handlers there.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what the router hands to each Module. V1 already runs
// OptionalAuth, so handlers may read the caller identity.
type RouterContext struct {
	Engine *gin.Engine
	V1     *gin.RouterGroup
	Config config.JWTConfig
}

// Mount creates the module group at /api/v1/<prefix>.
func (rc *RouterContext) Mount(prefix string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return rc.V1.Group("/"+prefix, handlers...)
}
