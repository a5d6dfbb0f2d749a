// Package service implements the reservation reconciliation core: amount
// fingerprint allocation, the payment intent and guest draft registries,
// transfer matching, the booking confirmation saga and the expiry sweep.
// Storage and outbound collaborators are reached through the interfaces
// below; internal/repository, internal/pms and internal/queue provide the
// production implementations.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/pms"
	"github.com/iliyamo/hotel-crypto-reservation/internal/queue"
	"github.com/iliyamo/hotel-crypto-reservation/internal/repository"
)

// IntentStore persists payment intents.  Find* methods return nil, nil
// when nothing matches.
type IntentStore interface {
	Create(ctx context.Context, in *model.PaymentIntent) error
	PendingAmountExists(ctx context.Context, token, chain string, amount decimal.Decimal, since time.Time) (bool, error)
	FindPendingByTransfer(ctx context.Context, token, chain string, amount decimal.Decimal, since time.Time) (*model.PaymentIntent, error)
	FindPendingByOwnerBase(ctx context.Context, ownerID uint64, base decimal.Decimal, since time.Time) (*model.PaymentIntent, error)
	FindLatestByOwnerAmount(ctx context.Context, ownerID uint64, amount decimal.Decimal) (*model.PaymentIntent, error)
	GetByID(ctx context.Context, id uint64) (*model.PaymentIntent, error)
	ConfirmWithDraft(ctx context.Context, intentID, draftID uint64, txHash, sender string, at time.Time) error
	CancelStale(ctx context.Context, cutoff, now time.Time) (int64, error)
}

// DraftStore persists guest draft bookings.
type DraftStore interface {
	Create(ctx context.Context, d *model.GuestDraftBooking) error
	FindProcessingForIntent(ctx context.Context, intentID uint64, amount decimal.Decimal) (*model.GuestDraftBooking, error)
	GetByID(ctx context.Context, id uint64) (*model.GuestDraftBooking, error)
	CancelStale(ctx context.Context, cutoff, now time.Time) (int64, error)
}

// InventoryLedger adjusts per-night room availability for a stay.
type InventoryLedger interface {
	Reserve(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time, count int, now time.Time) error
	Release(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time, count int, now time.Time) error
	Availability(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time) ([]model.InventoryRecord, error)
}

// ReservationStore records the booking saga.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	Get(ctx context.Context, id string) (*model.Reservation, error)
	Transition(ctx context.Context, id string, from, to model.ReservationStatus, patch repository.ReservationPatch, at time.Time) error
}

// TransferLogStore is the audit trail of reported transfers.
type TransferLogStore interface {
	Insert(ctx context.Context, t *model.TransferLog) error
	SetOutcome(ctx context.Context, id uint64, outcome model.TransferOutcome) error
}

// CouponStore reads coupon metadata.
type CouponStore interface {
	PlatformCoupons(ctx context.Context, codes []string) ([]model.Coupon, error)
	HotelCoupons(ctx context.Context, codes []string) ([]model.Coupon, error)
}

// PMS is the external property management system.
type PMS interface {
	SubmitReservation(ctx context.Context, r pms.Reservation) (string, error)
	CancelReservation(ctx context.Context, externalID string) error
}

// Notifier delivers booking and payment notifications.  Delivery is best
// effort; callers log failures and carry on.
type Notifier interface {
	SendConfirmation(ctx context.Context, ev queue.BookingEvent) error
	SendCancellation(ctx context.Context, ev queue.BookingEvent) error
	SendPaymentReceived(ctx context.Context, ev queue.PaymentEvent) error
}

// Converter turns a fiat amount into a token amount.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, fiat, token string) (decimal.Decimal, error)
}

var (
	_ IntentStore      = (*repository.IntentRepo)(nil)
	_ DraftStore       = (*repository.DraftRepo)(nil)
	_ InventoryLedger  = (*repository.InventoryRepo)(nil)
	_ ReservationStore = (*repository.ReservationRepo)(nil)
	_ TransferLogStore = (*repository.TransferRepo)(nil)
	_ CouponStore      = (*repository.CouponRepo)(nil)
	_ PMS              = (*pms.Client)(nil)
	_ Notifier         = (*queue.Publisher)(nil)
)
