package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/pms"
	"github.com/iliyamo/hotel-crypto-reservation/internal/queue"
	"github.com/iliyamo/hotel-crypto-reservation/internal/repository"
)

// fakeStore is an in-memory implementation of every storage port.  One
// mutex guards all tables so multi-table updates are atomic like the SQL
// transactions they stand in for.
type fakeStore struct {
	mu           sync.Mutex
	nextID       uint64
	intents      map[uint64]*model.PaymentIntent
	drafts       map[uint64]*model.GuestDraftBooking
	reservations map[string]*model.Reservation
	transfers    []*model.TransferLog
	inventory    map[string]int
	platform     []model.Coupon
	hotel        []model.Coupon

	createIntentErr error
	transitionErr   map[model.ReservationStatus]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		intents:      map[uint64]*model.PaymentIntent{},
		drafts:       map[uint64]*model.GuestDraftBooking{},
		reservations: map[string]*model.Reservation{},
		inventory:    map[string]int{},
	}
}

func (f *fakeStore) id() uint64 {
	f.nextID++
	return f.nextID
}

// intents

func (f *fakeStore) Create(_ context.Context, in *model.PaymentIntent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createIntentErr != nil {
		return f.createIntentErr
	}
	in.ID = f.id()
	in.UpdatedAt = in.CreatedAt
	cp := *in
	f.intents[in.ID] = &cp
	return nil
}

func (f *fakeStore) PendingAmountExists(_ context.Context, token, chain string, amount decimal.Decimal, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range f.intents {
		if in.Status == model.IntentPending && in.Token == token && in.Chain == chain &&
			in.Amount.Equal(amount) && !in.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) newestIntent(match func(*model.PaymentIntent) bool) *model.PaymentIntent {
	var best *model.PaymentIntent
	for _, in := range f.intents {
		if !match(in) {
			continue
		}
		if best == nil || in.CreatedAt.After(best.CreatedAt) || (in.CreatedAt.Equal(best.CreatedAt) && in.ID > best.ID) {
			best = in
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func (f *fakeStore) FindPendingByTransfer(_ context.Context, token, chain string, amount decimal.Decimal, since time.Time) (*model.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newestIntent(func(in *model.PaymentIntent) bool {
		return in.Status == model.IntentPending && in.Token == token && in.Chain == chain &&
			in.Amount.Equal(amount) && !in.CreatedAt.Before(since)
	}), nil
}

func (f *fakeStore) FindPendingByOwnerBase(_ context.Context, owner uint64, base decimal.Decimal, since time.Time) (*model.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newestIntent(func(in *model.PaymentIntent) bool {
		return in.Status == model.IntentPending && in.OwnerID == owner && in.BaseAmount.Equal(base) && !in.CreatedAt.Before(since)
	}), nil
}

func (f *fakeStore) FindLatestByOwnerAmount(_ context.Context, owner uint64, amount decimal.Decimal) (*model.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newestIntent(func(in *model.PaymentIntent) bool {
		return in.OwnerID == owner && in.Amount.Equal(amount)
	}), nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint64) (*model.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.intents[id]
	if !ok {
		return nil, nil
	}
	cp := *in
	return &cp, nil
}

func (f *fakeStore) ConfirmWithDraft(_ context.Context, intentID, draftID uint64, txHash, sender string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.intents[intentID]
	if !ok || in.Status != model.IntentPending {
		return repository.ErrStaleState
	}
	d, ok := f.drafts[draftID]
	if !ok || d.Status != model.DraftProcessing {
		return repository.ErrStaleState
	}
	h, s := txHash, sender
	in.Status, in.TxHash, in.SenderWallet, in.UpdatedAt = model.IntentConfirmed, &h, &s, at
	d.Status, d.TxHash, d.SenderWallet = model.DraftConfirmed, &h, &s
	return nil
}

func (f *fakeStore) CancelStale(_ context.Context, cutoff, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, in := range f.intents {
		if in.Status == model.IntentPending && in.CreatedAt.Before(cutoff) {
			in.Status, in.UpdatedAt = model.IntentCancelled, now
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) intent(id uint64) model.PaymentIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.intents[id]
}

// drafts are exposed through a view so the method names do not clash
// with the intent methods above.
type fakeDrafts struct{ f *fakeStore }

func (f *fakeStore) draftStore() fakeDrafts { return fakeDrafts{f} }

func (d fakeDrafts) Create(_ context.Context, in *model.GuestDraftBooking) error {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	in.ID = d.f.id()
	cp := *in
	d.f.drafts[in.ID] = &cp
	return nil
}

func (d fakeDrafts) FindProcessingForIntent(_ context.Context, intentID uint64, amount decimal.Decimal) (*model.GuestDraftBooking, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	var best *model.GuestDraftBooking
	for _, dr := range d.f.drafts {
		if dr.Status == model.DraftProcessing && dr.IntentID == intentID && dr.TotalAmount.Equal(amount) {
			if best == nil || dr.ID > best.ID {
				best = dr
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (d fakeDrafts) GetByID(_ context.Context, id uint64) (*model.GuestDraftBooking, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	dr, ok := d.f.drafts[id]
	if !ok {
		return nil, nil
	}
	cp := *dr
	return &cp, nil
}

func (d fakeDrafts) CancelStale(_ context.Context, cutoff, _ time.Time) (int64, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	var n int64
	for _, dr := range d.f.drafts {
		if dr.Status == model.DraftProcessing && dr.CreatedAt.Before(cutoff) {
			dr.Status = model.DraftCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) draft(id uint64) model.GuestDraftBooking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.drafts[id]
}

// inventory

type fakeLedger struct{ f *fakeStore }

func (f *fakeStore) ledger() fakeLedger { return fakeLedger{f} }

func invKey(hotel, room string, night time.Time) string {
	return hotel + "|" + room + "|" + night.Format(dateLayout)
}

func (f *fakeStore) seed(hotel, room string, from time.Time, counts ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range counts {
		f.inventory[invKey(hotel, room, from.AddDate(0, 0, i))] = c
	}
}

func (f *fakeStore) available(hotel, room string, from time.Time, nights int) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, nights)
	for i := range out {
		out[i] = f.inventory[invKey(hotel, room, from.AddDate(0, 0, i))]
	}
	return out
}

func (l fakeLedger) Reserve(_ context.Context, hotel, room string, in, out time.Time, count int, _ time.Time) error {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	nights := model.StayNights(in, out)
	if count <= 0 || len(nights) == 0 {
		return model.ErrInvalidQuantity
	}
	for _, n := range nights {
		avail, ok := l.f.inventory[invKey(hotel, room, n)]
		if !ok || avail < count {
			return model.ErrInsufficientInventory
		}
	}
	for _, n := range nights {
		l.f.inventory[invKey(hotel, room, n)] -= count
	}
	return nil
}

func (l fakeLedger) Release(_ context.Context, hotel, room string, in, out time.Time, count int, _ time.Time) error {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	for _, n := range model.StayNights(in, out) {
		k := invKey(hotel, room, n)
		if _, ok := l.f.inventory[k]; ok {
			l.f.inventory[k] += count
		}
	}
	return nil
}

func (l fakeLedger) Availability(_ context.Context, hotel, room string, in, out time.Time) ([]model.InventoryRecord, error) {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	var recs []model.InventoryRecord
	for _, n := range model.StayNights(in, out) {
		if avail, ok := l.f.inventory[invKey(hotel, room, n)]; ok {
			recs = append(recs, model.InventoryRecord{HotelCode: hotel, RoomType: room, StayDate: n, Available: avail})
		}
	}
	return recs, nil
}

// reservations

type fakeReservations struct{ f *fakeStore }

func (f *fakeStore) reservationStore() fakeReservations { return fakeReservations{f} }

func (r fakeReservations) Create(_ context.Context, res *model.Reservation) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.reservations[res.ID]; ok {
		return repository.ErrConflict
	}
	cp := *res
	r.f.reservations[res.ID] = &cp
	return nil
}

func (r fakeReservations) Get(_ context.Context, id string) (*model.Reservation, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	res, ok := r.f.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r fakeReservations) Transition(_ context.Context, id string, from, to model.ReservationStatus, p repository.ReservationPatch, at time.Time) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err := r.f.transitionErr[to]; err != nil {
		return err
	}
	res, ok := r.f.reservations[id]
	if !ok || res.Status != from {
		return repository.ErrStaleState
	}
	res.Status, res.UpdatedAt = to, at
	if p.ExternalID != nil {
		res.ExternalID = p.ExternalID
	}
	if p.FailureReason != nil {
		res.FailureReason = p.FailureReason
	}
	if p.CancelReason != nil {
		res.CancelReason = p.CancelReason
	}
	return nil
}

func (f *fakeStore) reservation(id string) model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.reservations[id]
}

// transfer logs and coupons

type fakeTransfers struct{ f *fakeStore }

func (f *fakeStore) transferStore() fakeTransfers { return fakeTransfers{f} }

func (t fakeTransfers) Insert(_ context.Context, l *model.TransferLog) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	l.ID = t.f.id()
	cp := *l
	t.f.transfers = append(t.f.transfers, &cp)
	return nil
}

func (t fakeTransfers) SetOutcome(_ context.Context, id uint64, o model.TransferOutcome) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	for _, l := range t.f.transfers {
		if l.ID == id {
			l.Outcome = o
			return nil
		}
	}
	return errors.New("transfer not found")
}

func (f *fakeStore) outcomes() []model.TransferOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.TransferOutcome, len(f.transfers))
	for i, l := range f.transfers {
		out[i] = l.Outcome
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type fakeCoupons struct{ f *fakeStore }

func (f *fakeStore) couponStore() fakeCoupons { return fakeCoupons{f} }

func pick(all []model.Coupon, codes []string) []model.Coupon {
	var out []model.Coupon
	for _, c := range all {
		for _, code := range codes {
			if c.Code == code {
				out = append(out, c)
			}
		}
	}
	return out
}

func (c fakeCoupons) PlatformCoupons(_ context.Context, codes []string) ([]model.Coupon, error) {
	return pick(c.f.platform, codes), nil
}

func (c fakeCoupons) HotelCoupons(_ context.Context, codes []string) ([]model.Coupon, error) {
	return pick(c.f.hotel, codes), nil
}

// fakePMS records submissions and cancellations.
type fakePMS struct {
	mu         sync.Mutex
	submitErr  error
	cancelErr  error
	submitted  []pms.Reservation
	cancelled  []string
	externalID string
}

func (p *fakePMS) SubmitReservation(_ context.Context, r pms.Reservation) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return "", p.submitErr
	}
	p.submitted = append(p.submitted, r)
	if p.externalID != "" {
		return p.externalID, nil
	}
	return "PMS-" + r.ReservationID, nil
}

func (p *fakePMS) CancelReservation(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelErr != nil {
		return p.cancelErr
	}
	p.cancelled = append(p.cancelled, id)
	return nil
}

// fakeNotifier counts deliveries and can be told to fail.
type fakeNotifier struct {
	mu            sync.Mutex
	err           error
	confirmations []queue.BookingEvent
	cancellations []queue.BookingEvent
	payments      []queue.PaymentEvent
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, ev queue.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, ev)
	return n.err
}

func (n *fakeNotifier) SendCancellation(_ context.Context, ev queue.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancellations = append(n.cancellations, ev)
	return n.err
}

func (n *fakeNotifier) SendPaymentReceived(_ context.Context, ev queue.PaymentEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments = append(n.payments, ev)
	return n.err
}

var (
	_ IntentStore      = (*fakeStore)(nil)
	_ DraftStore       = fakeDrafts{}
	_ InventoryLedger  = fakeLedger{}
	_ ReservationStore = fakeReservations{}
	_ TransferLogStore = fakeTransfers{}
	_ CouponStore      = fakeCoupons{}
	_ PMS              = (*fakePMS)(nil)
	_ Notifier         = (*fakeNotifier)(nil)
)
