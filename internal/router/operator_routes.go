package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-crypto-reservation/internal/handler"
	"github.com/iliyamo/hotel-crypto-reservation/internal/middleware"
)

// RegisterOperator registers hotel staff endpoints under /v1/operator.
// All routes require the OPERATOR role.
func RegisterOperator(e *echo.Echo, h *handler.OperatorHandler, jwtSecret string) {
	g := e.Group(
		"/v1/operator",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleOperator),
	)
	g.GET("/inventory", h.Inventory)
}

// RegisterRelay registers the endpoint the chain watcher posts observed
// transfers to.  It is rate limited like intent creation.
func RegisterRelay(e *echo.Echo, h *handler.RelayHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.POST("/v1/relay/transfers", h.ReportTransfer,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleRelay),
		limiter,
	)
}
