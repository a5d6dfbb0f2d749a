package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/clock"
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// DraftService is the guest draft registry.
type DraftService struct {
	drafts  DraftStore
	intents IntentStore
	clock   clock.Clock
	newID   func() string
	logger  *slog.Logger
}

// DraftOption customises a DraftService.
type DraftOption func(*DraftService)

// WithDraftIDs overrides reservation id generation.
func WithDraftIDs(fn func() string) DraftOption {
	return func(s *DraftService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithDraftLogger sets the logger.
func WithDraftLogger(l *slog.Logger) DraftOption {
	return func(s *DraftService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewDraftService builds a DraftService.
func NewDraftService(drafts DraftStore, intents IntentStore, clk clock.Clock, opts ...DraftOption) *DraftService {
	s := &DraftService{
		drafts:  drafts,
		intents: intents,
		clock:   clk,
		newID:   func() string { return uuid.New().String() },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraftInput carries the stay and guest details for a pending
// intent.  TotalAmount must equal the intent's fingerprinted amount.
type CreateDraftInput struct {
	OwnerID      uint64
	IntentID     uint64
	HotelCode    string
	HotelName    string
	RatePlanCode string
	RoomTypeCode string
	CheckIn      time.Time
	CheckOut     time.Time
	Rooms        int
	Guests       []model.Guest
	Contact      model.Contact
	TotalAmount  decimal.Decimal
}

// CreateDraft validates in and stores a PROCESSING draft.
func (s *DraftService) CreateDraft(ctx context.Context, in CreateDraftInput) (model.GuestDraftBooking, error) {
	if missing := missingDraftFields(in); len(missing) > 0 {
		return model.GuestDraftBooking{}, fmt.Errorf("%w: %s", model.ErrMissingFields, strings.Join(missing, ", "))
	}
	now := s.clock.Now()
	checkIn, checkOut := model.DateOnly(in.CheckIn), model.DateOnly(in.CheckOut)
	if err := validateStay(checkIn, checkOut, now); err != nil {
		return model.GuestDraftBooking{}, err
	}
	guests, summary, err := deriveGuests(in.Guests, checkIn)
	if err != nil {
		return model.GuestDraftBooking{}, err
	}

	intent, err := s.intents.GetByID(ctx, in.IntentID)
	if err != nil {
		return model.GuestDraftBooking{}, err
	}
	if intent == nil || intent.OwnerID != in.OwnerID {
		return model.GuestDraftBooking{}, model.ErrIntentNotFound
	}
	total := in.TotalAmount.Round(2)
	if intent.Status != model.IntentPending {
		return model.GuestDraftBooking{}, fmt.Errorf("%w: intent is %s", model.ErrAmountMismatch, strings.ToLower(string(intent.Status)))
	}
	if !intent.Amount.Equal(total) {
		return model.GuestDraftBooking{}, fmt.Errorf("%w: expected %s", model.ErrAmountMismatch, intent.Amount.StringFixed(2))
	}

	d := model.GuestDraftBooking{
		ReservationID: s.newID(),
		IntentID:      intent.ID,
		OwnerID:       in.OwnerID,
		HotelCode:     strings.TrimSpace(in.HotelCode),
		HotelName:     strings.TrimSpace(in.HotelName),
		RatePlanCode:  strings.TrimSpace(in.RatePlanCode),
		RoomTypeCode:  strings.TrimSpace(in.RoomTypeCode),
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Rooms:         in.Rooms,
		Guests:        guests,
		Summary:       summary,
		Contact:       in.Contact,
		TotalAmount:   total,
		Token:         intent.Token,
		Chain:         intent.Chain,
		Status:        model.DraftProcessing,
		CreatedAt:     now,
	}
	if err := s.drafts.Create(ctx, &d); err != nil {
		return model.GuestDraftBooking{}, fmt.Errorf("create draft: %w", err)
	}
	s.logger.Info("guest draft created",
		"draft_id", d.ID, "intent_id", d.IntentID, "hotel", d.HotelCode, "room_type", d.RoomTypeCode,
		"nights", d.Nights(), "guests", len(d.Guests))
	return d, nil
}

func missingDraftFields(in CreateDraftInput) []string {
	var missing []string
	check := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check(in.OwnerID != 0, "owner")
	check(in.IntentID != 0, "intent_id")
	check(strings.TrimSpace(in.HotelCode) != "", "hotel_code")
	check(strings.TrimSpace(in.RatePlanCode) != "", "rate_plan_code")
	check(strings.TrimSpace(in.RoomTypeCode) != "", "room_type_code")
	check(strings.TrimSpace(in.Contact.Email) != "", "contact.email")
	check(!in.CheckIn.IsZero(), "check_in")
	check(!in.CheckOut.IsZero(), "check_out")
	check(in.Rooms >= 1, "rooms")
	check(in.TotalAmount.IsPositive(), "total_amount")
	return missing
}

// validateStay rejects stays that start before today (UTC) or do not span
// at least one night.
func validateStay(checkIn, checkOut, now time.Time) error {
	if checkIn.Before(model.DateOnly(now)) {
		return fmt.Errorf("%w: check-in is in the past", model.ErrInvalidDateRange)
	}
	if !checkOut.After(checkIn) {
		return fmt.Errorf("%w: check-out must be after check-in", model.ErrInvalidDateRange)
	}
	return nil
}
