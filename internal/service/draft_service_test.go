package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

func TestCreateDraft_ScenarioAgeCategories(t *testing.T) {
	h := newHarness(t)
	intent := h.createIntent(t, 1, "300")

	in := h.draftInput(intent)
	in.Guests = []model.Guest{
		{FirstName: "Two", DateOfBirth: dob("2023-01-15")},
		{FirstName: "Ten", DateOfBirth: dob("2015-01-15")},
		{FirstName: "Thirty", DateOfBirth: dob("1995-01-15")},
	}
	d, err := h.drafts.CreateDraft(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, model.CategoryInfant, d.Guests[0].Category)
	require.Equal(t, "7", d.Guests[0].AgeCode)
	require.Equal(t, model.CategoryChild, d.Guests[1].Category)
	require.Equal(t, "8", d.Guests[1].AgeCode)
	require.Equal(t, model.CategoryAdult, d.Guests[2].Category)
	require.Equal(t, "10", d.Guests[2].AgeCode)
	require.Len(t, d.Summary, 3)
}

func TestCreateDraft_Persists(t *testing.T) {
	h := newHarness(t)
	h.drafts = NewDraftService(h.store.draftStore(), h.store, h.clock, WithDraftIDs(func() string { return "res-1" }))
	intent := h.createIntent(t, 1, "300")

	d, err := h.drafts.CreateDraft(context.Background(), h.draftInput(intent))
	require.NoError(t, err)
	require.NotZero(t, d.ID)
	require.Equal(t, "res-1", d.ReservationID)
	require.Equal(t, intent.ID, d.IntentID)
	require.Equal(t, model.DraftProcessing, d.Status)
	require.Equal(t, "USDT", d.Token)
	require.Equal(t, "TRON", d.Chain)
	require.Equal(t, 3, d.Nights())
	require.Equal(t, t0, d.CreatedAt)
	require.Equal(t, d, h.store.draft(d.ID))
}

func TestCreateDraft_Validation(t *testing.T) {
	h := newHarness(t)
	intent := h.createIntent(t, 1, "300")
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(in *CreateDraftInput)
		want   error
	}{
		{"missing hotel", func(in *CreateDraftInput) { in.HotelCode = "" }, model.ErrMissingFields},
		{"missing email", func(in *CreateDraftInput) { in.Contact.Email = "" }, model.ErrMissingFields},
		{"zero rooms", func(in *CreateDraftInput) { in.Rooms = 0 }, model.ErrMissingFields},
		{"no intent", func(in *CreateDraftInput) { in.IntentID = 0 }, model.ErrMissingFields},
		{"check-in in past", func(in *CreateDraftInput) { in.CheckIn = day("2025-04-30") }, model.ErrInvalidDateRange},
		{"zero nights", func(in *CreateDraftInput) { in.CheckOut = in.CheckIn }, model.ErrInvalidDateRange},
		{"check-out first", func(in *CreateDraftInput) { in.CheckOut = day("2025-05-20") }, model.ErrInvalidDateRange},
		{"no guests", func(in *CreateDraftInput) { in.Guests = nil }, model.ErrNoGuests},
		{"guest without dob", func(in *CreateDraftInput) { in.Guests[1].DateOfBirth = nil }, model.ErrMissingDOB},
		{"amount mismatch", func(in *CreateDraftInput) { in.TotalAmount = dec("299.99") }, model.ErrAmountMismatch},
		{"other owner", func(in *CreateDraftInput) { in.OwnerID = 99 }, model.ErrIntentNotFound},
		{"unknown intent", func(in *CreateDraftInput) { in.IntentID = 12345 }, model.ErrIntentNotFound},
		{"past check-in beats missing guests", func(in *CreateDraftInput) {
			in.CheckIn = day("2025-04-01")
			in.Guests = nil
		}, model.ErrInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := h.draftInput(intent)
			in.Guests = append([]model.Guest(nil), in.Guests...)
			tc.mutate(&in)
			_, err := h.drafts.CreateDraft(ctx, in)
			require.ErrorIs(t, err, tc.want)
		})
	}
	require.Empty(t, h.store.drafts)
}

func TestCreateDraft_CheckInTodayAllowed(t *testing.T) {
	h := newHarness(t)
	intent := h.createIntent(t, 1, "300")
	in := h.draftInput(intent)
	in.CheckIn, in.CheckOut = day("2025-05-01"), day("2025-05-02")
	_, err := h.drafts.CreateDraft(context.Background(), in)
	require.NoError(t, err)
}

func TestCreateDraft_RejectsNonPendingIntent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	intent := h.createIntent(t, 1, "300")

	h.clock.Advance(41 * time.Minute)
	_, err := h.sweeper.SweepOnce(ctx)
	require.NoError(t, err)

	in := h.draftInput(intent)
	in.CheckIn, in.CheckOut = day("2025-06-01"), day("2025-06-02")
	_, err = h.drafts.CreateDraft(ctx, in)
	require.ErrorIs(t, err, model.ErrAmountMismatch)
}
