package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-crypto-reservation/internal/middleware"
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/service"
)

// Canceller cancels confirmed reservations.
type Canceller interface {
	Cancel(ctx context.Context, in service.CancelInput) (model.Reservation, error)
}

// ReservationHandler lets customers cancel their bookings and operators
// cancel any booking.
type ReservationHandler struct {
	Bookings Canceller
}

// NewReservationHandler panics on a nil orchestrator.
func NewReservationHandler(b Canceller) *ReservationHandler {
	if b == nil {
		panic("nil orchestrator passed to NewReservationHandler")
	}
	return &ReservationHandler{Bookings: b}
}

type reservationResponse struct {
	ID           string    `json:"id"`
	ExternalID   *string   `json:"external_id,omitempty"`
	HotelCode    string    `json:"hotel_code"`
	RoomType     string    `json:"room_type"`
	CheckIn      string    `json:"check_in"`
	CheckOut     string    `json:"check_out"`
	Rooms        int       `json:"rooms"`
	Status       string    `json:"status"`
	CancelReason *string   `json:"cancel_reason,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CancelReservation handles DELETE /v1/reservations/:id.  The reason may be
// sent as a JSON body {"reason": "..."} or a ?reason= query parameter.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return badRequest(c, "invalid reservation id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		reason = strings.TrimSpace(c.QueryParam("reason"))
	}

	res, err := h.Bookings.Cancel(c.Request().Context(), service.CancelInput{
		ReservationID: id,
		CallerID:      userID,
		Operator:      middleware.HasRole(c, middleware.RoleOperator),
		Reason:        reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reservationResponse{
		ID:           res.ID,
		ExternalID:   res.ExternalID,
		HotelCode:    res.HotelCode,
		RoomType:     res.RoomType,
		CheckIn:      res.CheckIn.Format(dateLayout),
		CheckOut:     res.CheckOut.Format(dateLayout),
		Rooms:        res.Rooms,
		Status:       string(res.Status),
		CancelReason: res.CancelReason,
		UpdatedAt:    res.UpdatedAt,
	})
}
