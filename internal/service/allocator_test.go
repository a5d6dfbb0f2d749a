package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

func TestCreateIntent_ConcurrentSameBaseGetsDistinctFingerprints(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	amounts := make([]string, 2)
	errs := make([]error, 2)
	for i := range amounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := h.intents.CreateIntent(context.Background(), CreateIntentInput{
				OwnerID: uint64(i + 1), Channel: model.ChannelMobile, Token: "USDT", Chain: "TRON", BaseAmount: dec("100.00"),
			})
			errs[i] = err
			amounts[i] = v.Intent.Amount.StringFixed(2)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errors.Join(errs...))
	sort.Strings(amounts)
	require.Equal(t, []string{"100.00", "100.01"}, amounts)
}

func TestAllocator_UniqueUnderContention(t *testing.T) {
	h := newHarness(t)

	const n = 25
	var wg sync.WaitGroup
	amounts := make([]decimal.Decimal, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := h.intents.CreateIntent(context.Background(), CreateIntentInput{
				OwnerID: uint64(i + 1), Channel: model.ChannelWeb, Token: "USDT", Chain: "TRON", BaseAmount: dec("42.5"),
			})
			amounts[i], errs[i] = v.Intent.Amount, err
		}(i)
	}
	wg.Wait()
	require.NoError(t, errors.Join(errs...))

	seen := map[string]bool{}
	for _, a := range amounts {
		key := a.StringFixed(2)
		require.False(t, seen[key], "duplicate fingerprint %s", key)
		seen[key] = true
	}
	for amt := range seen {
		d := dec(amt)
		require.True(t, d.GreaterThanOrEqual(dec("42.50")) && d.LessThan(dec("42.75")), amt)
	}
}

func TestAllocator_ScopedPerTokenAndChain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.allocator.Allocate(ctx, "USDT", "TRON", dec("10"))
	require.NoError(t, err)
	b, err := h.allocator.Allocate(ctx, "USDT", "ETH", dec("10"))
	require.NoError(t, err)
	require.Equal(t, "10.00", a.StringFixed(2))
	require.Equal(t, "10.00", b.StringFixed(2))
}

func TestAllocator_Exhausted(t *testing.T) {
	h := newHarness(t)
	a := NewAllocator(h.store, NewMemoryClaimer(h.clock), h.clock, WithSteps(3))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := a.Allocate(ctx, "USDT", "TRON", dec("7"))
		require.NoError(t, err)
	}
	_, err := a.Allocate(ctx, "USDT", "TRON", dec("7"))
	require.ErrorIs(t, err, model.ErrAllocatorExhausted)
}

func TestAllocator_SkipsRecentPendingIntents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	// A pending intent written by another process whose claim is not
	// visible to this claimer.
	require.NoError(t, h.store.Create(ctx, &model.PaymentIntent{
		OwnerID: 9, Channel: model.ChannelWeb, Token: "USDT", Chain: "TRON",
		BaseAmount: dec("50"), Amount: dec("50.00"), Status: model.IntentPending, CreatedAt: h.clock.Now(),
	}))

	got, err := h.allocator.Allocate(ctx, "USDT", "TRON", dec("50"))
	require.NoError(t, err)
	require.Equal(t, "50.01", got.StringFixed(2))

	// Outside the window the old intent no longer collides.
	h.clock.Advance(41 * time.Minute)
	got, err = h.allocator.Allocate(ctx, "USDT", "TRON", dec("50"))
	require.NoError(t, err)
	require.Equal(t, "50.00", got.StringFixed(2))
}

func TestAllocator_ReleaseFreesClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.allocator.Allocate(ctx, "USDT", "TRON", dec("10"))
	require.NoError(t, err)
	require.NoError(t, h.allocator.Release(ctx, "USDT", "TRON", first))
	again, err := h.allocator.Allocate(ctx, "USDT", "TRON", dec("10"))
	require.NoError(t, err)
	require.True(t, first.Equal(again))
}

func TestAllocator_RejectsNonPositiveBase(t *testing.T) {
	h := newHarness(t)
	_, err := h.allocator.Allocate(context.Background(), "USDT", "TRON", decimal.Zero)
	require.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = h.allocator.Allocate(context.Background(), "USDT", "TRON", dec("0.004"))
	require.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestMemoryClaimer_Expires(t *testing.T) {
	h := newHarness(t)
	c := NewMemoryClaimer(h.clock)
	ctx := context.Background()

	ok, err := c.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = c.Claim(ctx, "k", time.Minute)
	require.False(t, ok)

	h.clock.Advance(time.Minute)
	ok, _ = c.Claim(ctx, "k", time.Minute)
	require.True(t, ok)
}

func TestCreateIntent_ReleasesClaimWhenPersistFails(t *testing.T) {
	h := newHarness(t)
	h.store.createIntentErr = errors.New("db down")
	_, err := h.intents.CreateIntent(context.Background(), CreateIntentInput{
		OwnerID: 1, Channel: model.ChannelWeb, Token: "USDT", Chain: "TRON", BaseAmount: dec("100"),
	})
	require.Error(t, err)

	h.store.createIntentErr = nil
	in := h.createIntent(t, 1, "100")
	require.Equal(t, "100.00", in.Amount.StringFixed(2))
}
