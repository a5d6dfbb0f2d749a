package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-crypto-reservation/internal/middleware"
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/repository"
)

// dateLayout is the wire format of every calendar date in requests and
// responses.
const dateLayout = "2006-01-02"

// allocatorRetryAfter is sent with 503 responses when every amount
// fingerprint is taken; slots free up as intents expire or confirm.
const allocatorRetryAfter = 30 * time.Second

// getUserID returns the authenticated caller id or responds 401.
func getUserID(c echo.Context) (uint64, bool) {
	return middleware.UserID(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseDate parses a YYYY-MM-DD value as UTC midnight.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// respondError maps a service error onto the HTTP status contract:
// validation 400, amount mismatch 422, exhausted fingerprints 503 with
// Retry-After, not found 404, forbidden 403, state conflicts 409 and PMS
// failures 502.  Anything else is logged and reported as 500.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrMissingFields),
		errors.Is(err, model.ErrInvalidDateRange),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrNoGuests),
		errors.Is(err, model.ErrMissingDOB):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrAmountMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrAllocatorExhausted):
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(allocatorRetryAfter/time.Second)))
		status = http.StatusServiceUnavailable
	case errors.Is(err, model.ErrIntentNotFound), errors.Is(err, model.ErrReservationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrInsufficientInventory),
		errors.Is(err, model.ErrAlreadyCancelled),
		errors.Is(err, model.ErrNotCancellable),
		errors.Is(err, repository.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, model.ErrExternalReservation):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
