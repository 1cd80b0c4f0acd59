package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/revassist/technician-portal/internal/auth"
	"github.com/revassist/technician-portal/internal/config"
	"github.com/revassist/technician-portal/internal/handler"
	"github.com/revassist/technician-portal/internal/middleware"
	"github.com/revassist/technician-portal/internal/service"
)

// RegisterRoutes registers routes that do not require a resolved identity:
// the health check for load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPortal registers the protected portal endpoints under /v1. Every
// route in the group carries the launch identifiers on each request, so the
// group chains request-id, metrics, rate limiting and identity resolution
// before any handler runs.
func RegisterPortal(e *echo.Echo, resolver *auth.Resolver, prompts *handler.PromptHandler, creds *handler.CredentialHandler, events *service.EventPublisher, tokenSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Metrics())

	v1 := e.Group("/v1")
	v1.Use(middleware.NewTokenBucket(rlCfg, rdb))
	v1.Use(middleware.LaunchIdentity(resolver, tokenSecret, events))

	v1.GET("/context", handler.GetContext)

	v1.GET("/prompts", prompts.List)
	v1.POST("/prompts", prompts.Create)
	v1.PUT("/prompts/:id", prompts.Edit)
	v1.POST("/prompts/:id/activate", prompts.Activate)

	v1.POST("/technicians/me/password", creds.ChangePassword)

	// Oversight endpoints for managers and admins.
	mgr := v1.Group("/manage")
	mgr.Use(middleware.RequireManagerOrAdmin())
	mgr.GET("/technicians/:id/active-prompt", prompts.ActiveForTechnician)
}
