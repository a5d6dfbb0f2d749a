package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // Echo web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus scrape handler

	"github.com/iliyamo/hotel-crypto-reservation/internal/handler" // HTTP handlers
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, readiness and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Liveness never touches a dependency so restarts are not triggered by
	// a database blip; readiness does.
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)
	// Expose every collector registered with the default registry,
	// including the booking counters and the Go runtime collectors.
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
