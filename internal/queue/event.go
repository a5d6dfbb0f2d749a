// Package queue defines the notification payloads exchanged over RabbitMQ
// together with the publisher used by the booking core and the background
// consumer that records deliveries.
package queue

import (
	"time"

	"github.com/shopspring/decimal"
)

// Queue names.  Each event kind has its own durable queue on the default
// exchange.
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
	QueuePaymentReceived  = "payment.received"
)

// BookingEvent is published when a reservation is confirmed or cancelled.
// It carries enough information for the mail worker to render a message
// without querying the primary database.
type BookingEvent struct {
	ReservationID string    `json:"reservation_id"`
	ExternalID    string    `json:"external_id"`
	OwnerID       uint64    `json:"owner_id"`
	HotelCode     string    `json:"hotel_code"`
	HotelName     string    `json:"hotel_name,omitempty"`
	RoomType      string    `json:"room_type"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Rooms         int       `json:"rooms"`
	ContactName   string    `json:"contact_name,omitempty"`
	ContactEmail  string    `json:"contact_email"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentEvent is published once a reported transfer has been matched to
// an intent and its draft.
type PaymentEvent struct {
	IntentID     uint64          `json:"intent_id"`
	DraftID      uint64          `json:"draft_id"`
	OwnerID      uint64          `json:"owner_id"`
	Token        string          `json:"token"`
	Chain        string          `json:"chain"`
	Amount       decimal.Decimal `json:"amount"`
	TxHash       string          `json:"tx_hash"`
	SenderWallet string          `json:"sender_wallet"`
	ContactEmail string          `json:"contact_email"`
	ReceivedAt   time.Time       `json:"received_at"`
}
