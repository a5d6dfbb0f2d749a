package model

import "errors"

// Validation errors.  They are returned before any mutation happens and
// handlers translate them into 4xx responses.  Callers wrap them with the
// offending field via fmt.Errorf("%w: field", ErrMissingFields).
var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNoGuests         = errors.New("no guests")
	ErrMissingDOB       = errors.New("guest date of birth required")
	ErrAmountMismatch   = errors.New("amount does not match payment intent")
)

// ErrAllocatorExhausted means every fingerprint perturbation of a base
// amount is taken by a recent pending intent.  Callers retry with backoff.
var ErrAllocatorExhausted = errors.New("amount fingerprints exhausted")

// Matching outcomes.  The transfer is logged but not applied; a matching
// intent or draft may simply not exist yet.
var (
	ErrNoMatchingIntent = errors.New("no matching pending intent")
	ErrNoMatchingDraft  = errors.New("no matching processing draft")
)

// Booking errors.
var (
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrExternalReservation   = errors.New("external reservation failed")
	ErrIntentNotFound        = errors.New("payment intent not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrAlreadyCancelled      = errors.New("reservation already cancelled")
	ErrNotCancellable        = errors.New("reservation cannot be cancelled")
)
