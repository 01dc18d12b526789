// Package router wires the HTTP surface together.
package router

import (
	"campus-assist-api/internal/config"
	"campus-assist-api/internal/interfaces/http/handler"
	"campus-assist-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers groups the request handlers and the rate limiter the router
// mounts. Limiter may be nil when rate limiting is disabled.
type Handlers struct {
	Health   *handler.HealthHandler
	Chat     *handler.ChatHandler
	Session  *handler.SessionHandler
	Language *handler.LanguageHandler
	Admin    *handler.AdminHandler

	Limiter middleware.RateLimiter
}

// Router is the HTTP router.
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
}

// New creates the router with the full middleware chain and routes.
func New(cfg *config.Config, handlers Handlers) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		cfg:      cfg,
		handlers: handlers,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine returns the underlying gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}
