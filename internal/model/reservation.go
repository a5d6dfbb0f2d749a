package model

import "time"

// ReservationStatus tracks the confirmation saga of a booking.
//
//	PENDING -> BOOKED -> CONFIRMED -> CANCELLED
//	PENDING -> FAILED                      (external reservation failed)
//	BOOKED  -> COMPENSATING -> COMPENSATED (inventory reservation failed)
type ReservationStatus string

const (
	ReservationPending      ReservationStatus = "PENDING"
	ReservationBooked       ReservationStatus = "BOOKED"
	ReservationConfirmed    ReservationStatus = "CONFIRMED"
	ReservationFailed       ReservationStatus = "FAILED"
	ReservationCompensating ReservationStatus = "COMPENSATING"
	ReservationCompensated  ReservationStatus = "COMPENSATED"
	ReservationCancelled    ReservationStatus = "CANCELLED"
)

// Reservation records a booking confirmed against the property management
// system.  ID is the draft's locally generated reservation id; ExternalID
// is what the PMS returned and is required for cancellation.
//
// Fields:
//  ID            – reservation id (uuid) shared with the draft.
//  DraftID       – guest draft the booking was built from.
//  IntentID      – payment intent that paid for it.
//  OwnerID       – customer who owns the booking.
//  ExternalID    – PMS reservation id (nil until booked).
//  HotelCode     – property code.
//  RoomType      – room type code.
//  CheckIn       – first night.
//  CheckOut      – departure date.
//  Rooms         – rooms reserved in inventory.
//  ContactEmail  – recipient of booking notifications.
//  Status        – saga state.
//  FailureReason – last saga failure, if any.
//  CancelReason  – reason supplied on cancellation.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            string            // reservations.id
	DraftID       uint64            // reservations.draft_id
	IntentID      uint64            // reservations.intent_id
	OwnerID       uint64            // reservations.owner_id
	ExternalID    *string           // reservations.external_id (nullable)
	HotelCode     string            // reservations.hotel_code
	RoomType      string            // reservations.room_type
	CheckIn       time.Time         // reservations.check_in
	CheckOut      time.Time         // reservations.check_out
	Rooms         int               // reservations.rooms
	ContactEmail  string            // reservations.contact_email
	Status        ReservationStatus // reservations.status
	FailureReason *string           // reservations.failure_reason (nullable)
	CancelReason  *string           // reservations.cancel_reason (nullable)
	CreatedAt     time.Time         // reservations.created_at
	UpdatedAt     time.Time         // reservations.updated_at
}
