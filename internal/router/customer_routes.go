package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-crypto-reservation/internal/handler"
	"github.com/iliyamo/hotel-crypto-reservation/internal/middleware"
)

// RegisterPayments registers the payment intent endpoints under
// /v1/payments.  Intent creation is rate limited because every call holds
// an amount fingerprint for the matching window.  The wallet list is public
// and served through the response cache.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler, jwtSecret string, limiter, cache echo.MiddlewareFunc) {
	e.GET("/v1/payments/wallets", h.ListWallets, cache)

	g := e.Group(
		"/v1/payments",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer),
	)
	g.POST("/intents", h.CreateIntent, limiter)
	g.GET("/intents/pending", h.LookupPending)
	g.GET("/intents/status", h.IntentStatus)
}

// RegisterBookings registers guest draft submission and reservation
// cancellation.  Operators may cancel on behalf of any customer; the
// handler passes the caller's role to the orchestrator.
func RegisterBookings(e *echo.Echo, d *handler.DraftHandler, r *handler.ReservationHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)
	e.POST("/v1/bookings/drafts", d.CreateDraft, auth, middleware.RequireRole(middleware.RoleCustomer))
	e.DELETE("/v1/reservations/:id", r.CancelReservation, auth,
		middleware.RequireRole(middleware.RoleCustomer, middleware.RoleOperator))
}
