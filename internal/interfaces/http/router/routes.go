// Package router wires the HTTP surface together.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campus-assist-api/internal/interfaces/http/middleware"
)

func (r *Router) setupRoutes() {
	// probes
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.cfg.Security.RateLimit.Enabled,
		RequestsPerMinute: r.cfg.Security.RateLimit.RequestsPerMinute,
		Burst:             r.cfg.Security.RateLimit.Burst,
	}, r.handlers.Limiter)

	v1 := r.engine.Group("/v1")
	{
		v1.POST("/chat", rateLimit, r.handlers.Chat.Chat)

		v1.GET("/languages", r.handlers.Language.List)

		conversations := v1.Group("/conversations")
		{
			conversations.GET("/:sid", r.handlers.Session.History)
			conversations.DELETE("/:sid", r.handlers.Session.Clear)
		}

		v1.GET("/logs", r.handlers.Admin.ListLogs)
		v1.GET("/stats", r.handlers.Admin.Stats)

		admin := v1.Group("/admin")
		{
			admin.POST("/reload-knowledge-base", r.handlers.Admin.ReloadKnowledgeBase)
		}
	}
}
