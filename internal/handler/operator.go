package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// AvailabilityAPI reads the inventory ledger.
type AvailabilityAPI interface {
	Availability(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time) ([]model.InventoryRecord, error)
}

// OperatorHandler serves hotel staff views.
type OperatorHandler struct {
	Inventories AvailabilityAPI
}

// NewOperatorHandler panics on a nil inventory service.
func NewOperatorHandler(inv AvailabilityAPI) *OperatorHandler {
	if inv == nil {
		panic("nil inventory service passed to NewOperatorHandler")
	}
	return &OperatorHandler{Inventories: inv}
}

type nightResponse struct {
	Date         string    `json:"date"`
	Available    int       `json:"available"`
	LastModified time.Time `json:"last_modified"`
}

// Inventory handles GET /v1/operator/inventory.  Query parameters hotel,
// room_type, check_in and check_out are required.  min_available is the
// number of rooms bookable for the whole stay; nights without a record
// count as zero.
func (h *OperatorHandler) Inventory(c echo.Context) error {
	hotel := strings.TrimSpace(c.QueryParam("hotel"))
	roomType := strings.TrimSpace(c.QueryParam("room_type"))
	if hotel == "" || roomType == "" {
		return badRequest(c, "hotel and room_type are required")
	}
	checkIn, err := parseDate(c.QueryParam("check_in"))
	if err != nil {
		return badRequest(c, "check_in must be YYYY-MM-DD")
	}
	checkOut, err := parseDate(c.QueryParam("check_out"))
	if err != nil {
		return badRequest(c, "check_out must be YYYY-MM-DD")
	}

	recs, err := h.Inventories.Availability(c.Request().Context(), hotel, roomType, checkIn, checkOut)
	if err != nil {
		return respondError(c, err)
	}
	nights := make([]nightResponse, 0, len(recs))
	minAvail := 0
	if len(recs) == model.NightCount(checkIn, checkOut) {
		minAvail = -1
	}
	for _, r := range recs {
		nights = append(nights, nightResponse{
			Date:         r.StayDate.Format(dateLayout),
			Available:    r.Available,
			LastModified: r.LastModified,
		})
		if minAvail < 0 || r.Available < minAvail {
			minAvail = r.Available
		}
	}
	if minAvail < 0 {
		minAvail = 0
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hotel":         hotel,
		"room_type":     roomType,
		"check_in":      checkIn.Format(dateLayout),
		"check_out":     checkOut.Format(dateLayout),
		"nights":        nights,
		"min_available": minAvail,
	})
}
