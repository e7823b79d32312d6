package server

import (
	"github.com/gin-gonic/gin"

	"resume-tailor/internal/services/health"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/tailor"
)

// RouterDeps bundles the handlers mounted on the engine.
type RouterDeps struct {
	Config        config.Config
	TailorHandler *tailor.Handler
	Health        *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)
	if limiter := middleware.NewClientLimiter(deps.Config.RateLimitRPS, deps.Config.RateLimitBurst, nil); limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(deps.Config.LLMModel)
	}
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	if deps.TailorHandler != nil {
		deps.TailorHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
