package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftStatus is the lifecycle state of a guest draft booking.
type DraftStatus string

const (
	DraftProcessing DraftStatus = "PROCESSING"
	DraftConfirmed  DraftStatus = "CONFIRMED"
	DraftCancelled  DraftStatus = "CANCELLED"
)

// AgeCategory groups guests the way the property management system
// expects them.  AgeCode is the OTA age-qualifying code sent alongside.
type AgeCategory string

const (
	CategoryInfant AgeCategory = "Infant"
	CategoryChild  AgeCategory = "Child"
	CategoryAdult  AgeCategory = "Adult"
)

// Guest is one traveller listed on a draft.  Age and category are derived
// from DateOfBirth relative to the check-in date.
type Guest struct {
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	DateOfBirth *time.Time  `json:"date_of_birth"`
	Age         int         `json:"age"`
	Category    AgeCategory `json:"category"`
	AgeCode     string      `json:"age_code"`
}

// Contact holds the booker's contact details used for notifications.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CategoryCount summarises how many guests fall into a category.  The
// summary is forwarded verbatim to the external reservation call.
type CategoryCount struct {
	Category AgeCategory `json:"category"`
	AgeCode  string      `json:"age_code"`
	Count    int         `json:"count"`
}

// GuestDraftBooking stores stay and guest details submitted after an
// intent is created and before payment is observed.  IntentID carries the
// explicit reference to the intent the draft was submitted for; matching
// still requires TotalAmount to equal the intent amount.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – locally generated id, reused as the external reservation key.
//  IntentID      – payment intent the draft belongs to.
//  OwnerID       – customer who submitted the draft.
//  HotelCode     – property code in the PMS.
//  HotelName     – display name of the property.
//  RatePlanCode  – PMS rate plan.
//  RoomTypeCode  – PMS room type; also the inventory key.
//  CheckIn       – first night of the stay.
//  CheckOut      – departure date (not a night of the stay).
//  Rooms         – number of rooms booked.
//  Guests        – guest list with derived categories.
//  Summary       – per-category guest counts.
//  Contact       – booker contact details.
//  TotalAmount   – must equal the intent's fingerprinted amount.
//  Token, Chain  – copied from the intent for audit.
//  Status        – PROCESSING, CONFIRMED or CANCELLED.
//  TxHash        – confirming transaction hash.
//  SenderWallet  – confirming payer wallet.
//  CreatedAt     – creation timestamp.
type GuestDraftBooking struct {
	ID            uint64          // guest_drafts.id
	ReservationID string          // guest_drafts.reservation_id
	IntentID      uint64          // guest_drafts.intent_id
	OwnerID       uint64          // guest_drafts.owner_id
	HotelCode     string          // guest_drafts.hotel_code
	HotelName     string          // guest_drafts.hotel_name
	RatePlanCode  string          // guest_drafts.rate_plan_code
	RoomTypeCode  string          // guest_drafts.room_type_code
	CheckIn       time.Time       // guest_drafts.check_in
	CheckOut      time.Time       // guest_drafts.check_out
	Rooms         int             // guest_drafts.rooms
	Guests        []Guest         // guest_drafts.guests (JSON)
	Summary       []CategoryCount // guest_drafts.category_summary (JSON)
	Contact       Contact         // guest_drafts.contact_* columns
	TotalAmount   decimal.Decimal // guest_drafts.total_amount
	Token         string          // guest_drafts.token
	Chain         string          // guest_drafts.chain
	Status        DraftStatus     // guest_drafts.status
	TxHash        *string         // guest_drafts.tx_hash (nullable)
	SenderWallet  *string         // guest_drafts.sender_wallet (nullable)
	CreatedAt     time.Time       // guest_drafts.created_at
}

// Nights returns the number of nights between check-in and check-out.
func (d *GuestDraftBooking) Nights() int {
	return NightCount(d.CheckIn, d.CheckOut)
}
