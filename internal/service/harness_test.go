package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-crypto-reservation/internal/clock"
	"github.com/iliyamo/hotel-crypto-reservation/internal/logging"
	"github.com/iliyamo/hotel-crypto-reservation/internal/metrics"
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func dob(s string) *time.Time {
	d := day(s)
	return &d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type harness struct {
	store    *fakeStore
	clock    *clock.Manual
	pms      *fakePMS
	notifier *fakeNotifier
	metrics  *metrics.Booking

	allocator    *Allocator
	intents      *IntentService
	drafts       *DraftService
	orchestrator *Orchestrator
	matcher      *Matcher
	sweeper      *Sweeper
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    newFakeStore(),
		clock:    clock.NewManual(t0),
		pms:      &fakePMS{},
		notifier: &fakeNotifier{},
		metrics:  metrics.New(),
	}
	log := logging.Nop()
	h.allocator = NewAllocator(h.store, NewMemoryClaimer(h.clock), h.clock,
		WithAllocatorMetrics(h.metrics), WithAllocatorLogger(log))
	h.intents = NewIntentService(h.store, h.store.couponStore(), h.allocator, h.clock,
		WithConverter(NewStaticConverter("USD", map[string]decimal.Decimal{"USDT": dec("1"), "ETH": dec("2000")})),
		WithIntentLogger(log))
	h.drafts = NewDraftService(h.store.draftStore(), h.store, h.clock, WithDraftLogger(log))
	h.orchestrator = NewOrchestrator(h.store.reservationStore(), h.store.ledger(), h.pms, h.notifier, h.clock,
		WithOrchestratorMetrics(h.metrics), WithOrchestratorLogger(log))
	h.matcher = NewMatcher(h.store, h.store.draftStore(), h.store.transferStore(), h.orchestrator, h.notifier, h.clock,
		WithMatcherClaims(h.allocator), WithMatcherMetrics(h.metrics), WithMatcherLogger(log))
	h.sweeper = NewSweeper(h.store, h.store.draftStore(), h.clock,
		WithSweeperMetrics(h.metrics), WithSweeperLogger(log))
	return h
}

func (h *harness) createIntent(t *testing.T, owner uint64, base string) model.PaymentIntent {
	t.Helper()
	v, err := h.intents.CreateIntent(context.Background(), CreateIntentInput{
		OwnerID:    owner,
		Channel:    model.ChannelWeb,
		Token:      "usdt",
		Chain:      "tron",
		BaseAmount: dec(base),
	})
	require.NoError(t, err)
	return v.Intent
}

func (h *harness) draftInput(intent model.PaymentIntent) CreateDraftInput {
	return CreateDraftInput{
		OwnerID:      intent.OwnerID,
		IntentID:     intent.ID,
		HotelCode:    "HX",
		HotelName:    "Hotel X",
		RatePlanCode: "BAR",
		RoomTypeCode: "DLX",
		CheckIn:      day("2025-06-01"),
		CheckOut:     day("2025-06-04"),
		Rooms:        2,
		Guests: []model.Guest{
			{FirstName: "Ada", LastName: "L", DateOfBirth: dob("1995-03-10")},
			{FirstName: "Tim", LastName: "L", DateOfBirth: dob("2015-01-20")},
		},
		Contact:     model.Contact{Name: "Ada L", Email: "ada@example.com"},
		TotalAmount: intent.Amount,
	}
}

func (h *harness) createDraft(t *testing.T, intent model.PaymentIntent) model.GuestDraftBooking {
	t.Helper()
	d, err := h.drafts.CreateDraft(context.Background(), h.draftInput(intent))
	require.NoError(t, err)
	return d
}

func transferFor(intent model.PaymentIntent, hash string) model.Transfer {
	return model.Transfer{
		SenderWallet: "TSender",
		Token:        intent.Token,
		Chain:        intent.Chain,
		Amount:       intent.Amount,
		TxHash:       hash,
	}
}
