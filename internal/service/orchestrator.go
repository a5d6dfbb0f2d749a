package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/hotel-crypto-reservation/internal/clock"
	"github.com/iliyamo/hotel-crypto-reservation/internal/metrics"
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/pms"
	"github.com/iliyamo/hotel-crypto-reservation/internal/queue"
	"github.com/iliyamo/hotel-crypto-reservation/internal/repository"
)

// Orchestrator runs the booking confirmation saga for a paid draft and
// the customer or operator cancellation flow.  Every step is recorded in
// the reservation store so a half-finished saga can be audited.
//
//	PENDING --pms ok--> BOOKED --inventory ok--> CONFIRMED
//	   |                  |
//	   pms failed         inventory failed
//	   v                  v
//	FAILED            COMPENSATING --pms cancel ok--> COMPENSATED
type Orchestrator struct {
	reservations ReservationStore
	ledger       InventoryLedger
	pms          PMS
	notifier     Notifier
	clock        clock.Clock
	metrics      *metrics.Booking
	logger       *slog.Logger
}

// OrchestratorOption customises an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorMetrics records terminal saga states on m.
func WithOrchestratorMetrics(m *metrics.Booking) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator builds an Orchestrator.  notifier may be nil.
func NewOrchestrator(reservations ReservationStore, ledger InventoryLedger, p PMS, notifier Notifier, clk clock.Clock, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		reservations: reservations,
		ledger:       ledger,
		pms:          p,
		notifier:     notifier,
		clock:        clk,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Confirm books the stay of a confirmed draft with the PMS and reserves
// its inventory.  The intent and draft stay CONFIRMED whatever happens
// here; failures are visible through the reservation status.
func (o *Orchestrator) Confirm(ctx context.Context, draft model.GuestDraftBooking, intent model.PaymentIntent) (model.Reservation, error) {
	now := o.clock.Now()
	res := model.Reservation{
		ID:           draft.ReservationID,
		DraftID:      draft.ID,
		IntentID:     intent.ID,
		OwnerID:      draft.OwnerID,
		HotelCode:    draft.HotelCode,
		RoomType:     draft.RoomTypeCode,
		CheckIn:      draft.CheckIn,
		CheckOut:     draft.CheckOut,
		Rooms:        draft.Rooms,
		ContactEmail: draft.Contact.Email,
		Status:       model.ReservationPending,
		CreatedAt:    now,
	}
	if err := o.reservations.Create(ctx, &res); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Reservation{}, fmt.Errorf("reservation %s already started: %w", res.ID, err)
		}
		return model.Reservation{}, fmt.Errorf("record reservation: %w", err)
	}
	log := o.logger.With("reservation_id", res.ID, "draft_id", draft.ID, "intent_id", intent.ID)

	if err := validateStay(draft.CheckIn, draft.CheckOut, now); err != nil {
		return o.fail(ctx, res, err, log)
	}
	guests, summary, err := deriveGuests(draft.Guests, draft.CheckIn)
	if err != nil {
		return o.fail(ctx, res, err, log)
	}
	draft.Guests, draft.Summary = guests, summary

	externalID, err := o.pms.SubmitReservation(ctx, buildPMSReservation(draft, intent))
	if err != nil {
		log.Error("pms reservation failed", "error", err)
		return o.fail(ctx, res, fmt.Errorf("%w: %v", model.ErrExternalReservation, err), log)
	}
	if err := o.step(ctx, &res, model.ReservationBooked, repository.ReservationPatch{ExternalID: &externalID}); err != nil {
		log.Error("record pms booking failed; cancelling it", "external_id", externalID, "error", err)
		return o.abandon(ctx, res, externalID, err, log)
	}

	if err := o.ledger.Reserve(ctx, res.HotelCode, res.RoomType, res.CheckIn, res.CheckOut, res.Rooms, o.clock.Now()); err != nil {
		log.Warn("inventory reservation failed; compensating", "external_id", externalID, "error", err)
		return o.compensate(ctx, res, err, log)
	}
	if err := o.step(ctx, &res, model.ReservationConfirmed, repository.ReservationPatch{}); err != nil {
		return res, err
	}
	o.metrics.ObserveSaga(string(model.ReservationConfirmed))
	log.Info("reservation confirmed", "external_id", externalID, "hotel", res.HotelCode, "nights", draft.Nights(), "rooms", res.Rooms)

	o.notify(ctx, "confirmation", func(ctx context.Context) error {
		ev := bookingEvent(res, o.clock.Now())
		ev.HotelName = draft.HotelName
		ev.ContactName = draft.Contact.Name
		return o.notifier.SendConfirmation(ctx, ev)
	})
	return res, nil
}

// CancelInput identifies a cancellation request.  Operators may cancel any
// reservation; customers only their own.
type CancelInput struct {
	ReservationID string
	CallerID      uint64
	Operator      bool
	Reason        string
}

// Cancel cancels a CONFIRMED reservation with the PMS and returns its
// rooms to inventory.  The CONFIRMED -> CANCELLED transition is taken
// first so concurrent cancellations release inventory at most once; it is
// undone if the PMS refuses the cancellation.
func (o *Orchestrator) Cancel(ctx context.Context, in CancelInput) (model.Reservation, error) {
	res, err := o.reservations.Get(ctx, in.ReservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	if res == nil {
		return model.Reservation{}, model.ErrReservationNotFound
	}
	if !in.Operator && res.OwnerID != in.CallerID {
		return model.Reservation{}, repository.ErrForbidden
	}
	switch res.Status {
	case model.ReservationCancelled:
		return *res, model.ErrAlreadyCancelled
	case model.ReservationConfirmed:
	default:
		return *res, fmt.Errorf("%w: status %s", model.ErrNotCancellable, res.Status)
	}

	var reason *string
	if in.Reason != "" {
		reason = &in.Reason
	}
	if err := o.reservations.Transition(ctx, res.ID, model.ReservationConfirmed, model.ReservationCancelled,
		repository.ReservationPatch{CancelReason: reason}, o.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return *res, model.ErrAlreadyCancelled
		}
		return *res, err
	}
	log := o.logger.With("reservation_id", res.ID)

	externalID := ""
	if res.ExternalID != nil {
		externalID = *res.ExternalID
	}
	if err := o.pms.CancelReservation(ctx, externalID); err != nil {
		log.Error("pms cancellation failed; reverting", "external_id", externalID, "error", err)
		if rerr := o.reservations.Transition(ctx, res.ID, model.ReservationCancelled, model.ReservationConfirmed,
			repository.ReservationPatch{}, o.clock.Now()); rerr != nil {
			log.Error("revert cancellation failed", "error", rerr)
		}
		return *res, fmt.Errorf("%w: %v", model.ErrExternalReservation, err)
	}
	res.Status = model.ReservationCancelled
	res.CancelReason = reason
	o.metrics.ObserveSaga(string(model.ReservationCancelled))

	if err := o.ledger.Release(ctx, res.HotelCode, res.RoomType, res.CheckIn, res.CheckOut, res.Rooms, o.clock.Now()); err != nil {
		log.Error("inventory release failed after cancellation", "error", err)
		return *res, fmt.Errorf("release inventory: %w", err)
	}
	log.Info("reservation cancelled", "external_id", externalID, "operator", in.Operator)

	o.notify(ctx, "cancellation", func(ctx context.Context) error {
		ev := bookingEvent(*res, o.clock.Now())
		ev.Reason = in.Reason
		return o.notifier.SendCancellation(ctx, ev)
	})
	return *res, nil
}

// step moves res from its current status to next.
func (o *Orchestrator) step(ctx context.Context, res *model.Reservation, next model.ReservationStatus, patch repository.ReservationPatch) error {
	if err := o.reservations.Transition(ctx, res.ID, res.Status, next, patch, o.clock.Now()); err != nil {
		return fmt.Errorf("reservation %s %s->%s: %w", res.ID, res.Status, next, err)
	}
	res.Status = next
	if patch.ExternalID != nil {
		res.ExternalID = patch.ExternalID
	}
	if patch.FailureReason != nil {
		res.FailureReason = patch.FailureReason
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, res model.Reservation, cause error, log *slog.Logger) (model.Reservation, error) {
	reason := cause.Error()
	if err := o.step(ctx, &res, model.ReservationFailed, repository.ReservationPatch{FailureReason: &reason}); err != nil {
		log.Error("record saga failure", "error", err)
	}
	o.metrics.ObserveSaga(string(model.ReservationFailed))
	return res, cause
}

// compensate cancels the PMS booking after inventory could not be
// reserved.  When the PMS cancellation itself fails the saga stays
// COMPENSATING for manual follow-up.
func (o *Orchestrator) compensate(ctx context.Context, res model.Reservation, cause error, log *slog.Logger) (model.Reservation, error) {
	reason := cause.Error()
	if err := o.step(ctx, &res, model.ReservationCompensating, repository.ReservationPatch{FailureReason: &reason}); err != nil {
		log.Error("record compensation start", "error", err)
		return res, errors.Join(cause, err)
	}
	if err := o.pms.CancelReservation(ctx, *res.ExternalID); err != nil {
		log.Error("compensating pms cancellation failed", "external_id", *res.ExternalID, "error", err)
		return res, errors.Join(cause, fmt.Errorf("compensate: %w", err))
	}
	if err := o.step(ctx, &res, model.ReservationCompensated, repository.ReservationPatch{}); err != nil {
		log.Error("record compensation end", "error", err)
	}
	o.metrics.ObserveSaga(string(model.ReservationCompensated))
	return res, cause
}

// abandon cancels a PMS booking whose BOOKED state was never recorded and
// marks the reservation FAILED.
func (o *Orchestrator) abandon(ctx context.Context, res model.Reservation, externalID string, cause error, log *slog.Logger) (model.Reservation, error) {
	if err := o.pms.CancelReservation(ctx, externalID); err != nil {
		log.Error("cancel unrecorded pms booking failed", "external_id", externalID, "error", err)
		return res, errors.Join(cause, fmt.Errorf("compensate: %w", err))
	}
	return o.fail(ctx, res, cause, log)
}

func (o *Orchestrator) notify(ctx context.Context, kind string, send func(context.Context) error) {
	if o.notifier == nil {
		return
	}
	if err := send(ctx); err != nil {
		o.metrics.ObserveNotifyFailure(kind)
		o.logger.Warn("notification failed", "kind", kind, "error", err)
	}
}

func buildPMSReservation(d model.GuestDraftBooking, intent model.PaymentIntent) pms.Reservation {
	guests := make([]pms.Guest, len(d.Guests))
	for i, g := range d.Guests {
		guests[i] = pms.Guest{FirstName: g.FirstName, LastName: g.LastName, Age: g.Age, AgeCode: g.AgeCode}
	}
	counts := make([]pms.GuestCount, len(d.Summary))
	for i, c := range d.Summary {
		counts[i] = pms.GuestCount{AgeCode: c.AgeCode, Count: c.Count}
	}
	ref := ""
	if intent.TxHash != nil {
		ref = *intent.TxHash
	}
	return pms.Reservation{
		ReservationID: d.ReservationID,
		HotelCode:     d.HotelCode,
		RatePlanCode:  d.RatePlanCode,
		RoomTypeCode:  d.RoomTypeCode,
		CheckIn:       d.CheckIn.Format(dateLayout),
		CheckOut:      d.CheckOut.Format(dateLayout),
		Rooms:         d.Rooms,
		Guests:        guests,
		GuestCounts:   counts,
		ContactName:   d.Contact.Name,
		ContactEmail:  d.Contact.Email,
		ContactPhone:  d.Contact.Phone,
		TotalAmount:   d.TotalAmount,
		Currency:      intent.Token,
		PaymentRef:    ref,
	}
}

func bookingEvent(res model.Reservation, at time.Time) queue.BookingEvent {
	ext := ""
	if res.ExternalID != nil {
		ext = *res.ExternalID
	}
	return queue.BookingEvent{
		ReservationID: res.ID,
		ExternalID:    ext,
		OwnerID:       res.OwnerID,
		HotelCode:     res.HotelCode,
		RoomType:      res.RoomType,
		CheckIn:       res.CheckIn.Format(dateLayout),
		CheckOut:      res.CheckOut.Format(dateLayout),
		Rooms:         res.Rooms,
		ContactEmail:  res.ContactEmail,
		OccurredAt:    at,
	}
}

const dateLayout = "2006-01-02"
