package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/service"
)

// DraftAPI stores guest drafts for pending intents.
type DraftAPI interface {
	CreateDraft(ctx context.Context, in service.CreateDraftInput) (model.GuestDraftBooking, error)
}

// DraftHandler accepts the stay and guest details once a customer has an
// intent.
type DraftHandler struct {
	Drafts DraftAPI
}

// NewDraftHandler panics on a nil service.
func NewDraftHandler(drafts DraftAPI) *DraftHandler {
	if drafts == nil {
		panic("nil draft service passed to NewDraftHandler")
	}
	return &DraftHandler{Drafts: drafts}
}

type guestRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
}

type createDraftRequest struct {
	IntentID     uint64          `json:"intent_id"`
	HotelCode    string          `json:"hotel_code"`
	HotelName    string          `json:"hotel_name"`
	RatePlanCode string          `json:"rate_plan_code"`
	RoomTypeCode string          `json:"room_type_code"`
	CheckIn      string          `json:"check_in"`
	CheckOut     string          `json:"check_out"`
	Rooms        int             `json:"rooms"`
	Guests       []guestRequest  `json:"guests"`
	Contact      model.Contact   `json:"contact"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

type draftResponse struct {
	ID            uint64                `json:"id"`
	ReservationID string                `json:"reservation_id"`
	IntentID      uint64                `json:"intent_id"`
	HotelCode     string                `json:"hotel_code"`
	RoomTypeCode  string                `json:"room_type_code"`
	CheckIn       string                `json:"check_in"`
	CheckOut      string                `json:"check_out"`
	Nights        int                   `json:"nights"`
	Rooms         int                   `json:"rooms"`
	Guests        []model.Guest         `json:"guests"`
	Summary       []model.CategoryCount `json:"summary"`
	TotalAmount   string                `json:"total_amount"`
	Token         string                `json:"token"`
	Chain         string                `json:"chain"`
	Status        string                `json:"status"`
	CreatedAt     time.Time             `json:"created_at"`
}

// CreateDraft handles POST /v1/bookings/drafts.  Dates are YYYY-MM-DD;
// guests without a date of birth are rejected by the service.
func (h *DraftHandler) CreateDraft(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	var body createDraftRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	checkIn, err := parseDate(body.CheckIn)
	if err != nil {
		return badRequest(c, "check_in must be YYYY-MM-DD")
	}
	checkOut, err := parseDate(body.CheckOut)
	if err != nil {
		return badRequest(c, "check_out must be YYYY-MM-DD")
	}
	guests := make([]model.Guest, 0, len(body.Guests))
	for _, g := range body.Guests {
		guest := model.Guest{FirstName: g.FirstName, LastName: g.LastName}
		if g.DateOfBirth != "" {
			dob, err := parseDate(g.DateOfBirth)
			if err != nil {
				return badRequest(c, "date_of_birth must be YYYY-MM-DD")
			}
			guest.DateOfBirth = &dob
		}
		guests = append(guests, guest)
	}

	d, err := h.Drafts.CreateDraft(c.Request().Context(), service.CreateDraftInput{
		OwnerID:      userID,
		IntentID:     body.IntentID,
		HotelCode:    body.HotelCode,
		HotelName:    body.HotelName,
		RatePlanCode: body.RatePlanCode,
		RoomTypeCode: body.RoomTypeCode,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Rooms:        body.Rooms,
		Guests:       guests,
		Contact:      body.Contact,
		TotalAmount:  body.TotalAmount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, draftResponse{
		ID:            d.ID,
		ReservationID: d.ReservationID,
		IntentID:      d.IntentID,
		HotelCode:     d.HotelCode,
		RoomTypeCode:  d.RoomTypeCode,
		CheckIn:       d.CheckIn.Format(dateLayout),
		CheckOut:      d.CheckOut.Format(dateLayout),
		Nights:        d.Nights(),
		Rooms:         d.Rooms,
		Guests:        d.Guests,
		Summary:       d.Summary,
		TotalAmount:   d.TotalAmount.StringFixed(2),
		Token:         d.Token,
		Chain:         d.Chain,
		Status:        string(d.Status),
		CreatedAt:     d.CreatedAt,
	})
}
