package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/clock"
	"github.com/iliyamo/hotel-crypto-reservation/internal/metrics"
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/queue"
	"github.com/iliyamo/hotel-crypto-reservation/internal/repository"
)

// Confirmer books a freshly paid draft.  *Orchestrator implements it.
type Confirmer interface {
	Confirm(ctx context.Context, draft model.GuestDraftBooking, intent model.PaymentIntent) (model.Reservation, error)
}

// ClaimReleaser frees the fingerprint held for a confirmed intent so its
// amount can be handed out again.  *Allocator implements it.
type ClaimReleaser interface {
	Release(ctx context.Context, token, chain string, amount decimal.Decimal) error
}

// Matcher reconciles transfers reported by the relay with pending intents
// and their drafts.
type Matcher struct {
	intents   IntentStore
	drafts    DraftStore
	transfers TransferLogStore
	confirmer Confirmer
	notifier  Notifier
	claims    ClaimReleaser
	clock     clock.Clock
	window    time.Duration
	metrics   *metrics.Booking
	logger    *slog.Logger
}

// MatcherOption customises a Matcher.
type MatcherOption func(*Matcher)

// WithMatcherWindow overrides how far back pending intents are matched.
func WithMatcherWindow(d time.Duration) MatcherOption {
	return func(m *Matcher) {
		if d > 0 {
			m.window = d
		}
	}
}

// WithMatcherMetrics records outcomes on b.
func WithMatcherMetrics(b *metrics.Booking) MatcherOption {
	return func(m *Matcher) { m.metrics = b }
}

// WithMatcherClaims releases fingerprint claims once their intent is
// confirmed.
func WithMatcherClaims(c ClaimReleaser) MatcherOption {
	return func(m *Matcher) { m.claims = c }
}

// WithMatcherLogger sets the logger.
func WithMatcherLogger(l *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMatcher builds a Matcher.  notifier may be nil.
func NewMatcher(intents IntentStore, drafts DraftStore, transfers TransferLogStore, confirmer Confirmer, notifier Notifier, clk clock.Clock, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		intents:   intents,
		drafts:    drafts,
		transfers: transfers,
		confirmer: confirmer,
		notifier:  notifier,
		clock:     clk,
		window:    DefaultWindow,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ReconcileResult describes what happened to a reported transfer.  Intent
// and Draft are set once both were confirmed; Reservation is set when the
// booking saga ran.
type ReconcileResult struct {
	TransferID  uint64
	Outcome     model.TransferOutcome
	Intent      *model.PaymentIntent
	Draft       *model.GuestDraftBooking
	Reservation *model.Reservation
}

// Reconcile logs t, confirms the matching intent and draft exactly once
// and runs the booking saga.  It returns model.ErrNoMatchingIntent or
// model.ErrNoMatchingDraft (with a result carrying the outcome) when the
// transfer cannot be applied yet.  A saga failure is returned as an error
// alongside a CONFIRMED outcome because the payment itself was accepted.
func (m *Matcher) Reconcile(ctx context.Context, t model.Transfer) (ReconcileResult, error) {
	t.Token, t.Chain = normalizeAsset(t.Token, t.Chain)
	t.SenderWallet, t.TxHash = strings.TrimSpace(t.SenderWallet), strings.TrimSpace(t.TxHash)
	now := m.clock.Now()

	entry := model.TransferLog{
		SenderWallet: t.SenderWallet,
		Token:        t.Token,
		Chain:        t.Chain,
		Amount:       t.Amount,
		TxHash:       t.TxHash,
		Outcome:      model.OutcomeReceived,
		ReceivedAt:   now,
	}
	if err := m.transfers.Insert(ctx, &entry); err != nil {
		return ReconcileResult{}, fmt.Errorf("log transfer: %w", err)
	}
	log := m.logger.With("transfer_id", entry.ID, "tx_hash", t.TxHash, "token", t.Token, "chain", t.Chain, "amount", t.Amount.String())
	result := ReconcileResult{TransferID: entry.ID}

	finish := func(outcome model.TransferOutcome, err error) (ReconcileResult, error) {
		result.Outcome = outcome
		if serr := m.transfers.SetOutcome(ctx, entry.ID, outcome); serr != nil {
			log.Error("record transfer outcome failed", "outcome", outcome, "error", serr)
		}
		m.metrics.ObserveReconcile(string(outcome))
		return result, err
	}

	if t.Token == "" || t.Chain == "" || t.TxHash == "" || t.SenderWallet == "" {
		log.Warn("invalid transfer report", "sender", t.SenderWallet)
		return finish(model.OutcomeInvalid, fmt.Errorf("%w: sender_wallet, token, chain and tx_hash are required", model.ErrMissingFields))
	}
	if !t.Amount.IsPositive() {
		log.Warn("invalid transfer report")
		return finish(model.OutcomeInvalid, fmt.Errorf("%w: amount must be positive", model.ErrInvalidAmount))
	}
	// Fingerprints are whole cents; sub-cent amounts never match one.
	if !t.Amount.Equal(t.Amount.Truncate(2)) {
		log.Info("transfer amount is not a whole cent amount")
		return finish(model.OutcomeNoMatchingIntent, model.ErrNoMatchingIntent)
	}
	amount := t.Amount

	intent, err := m.intents.FindPendingByTransfer(ctx, t.Token, t.Chain, amount, now.Add(-m.window))
	if err != nil {
		return finish(model.OutcomeError, err)
	}
	if intent == nil {
		log.Info("transfer has no matching pending intent")
		return finish(model.OutcomeNoMatchingIntent, model.ErrNoMatchingIntent)
	}
	draft, err := m.drafts.FindProcessingForIntent(ctx, intent.ID, amount)
	if err != nil {
		return finish(model.OutcomeError, err)
	}
	if draft == nil {
		// A concurrent transfer may have confirmed the pair between the two
		// lookups; report that the same way as losing the promotion.
		if cur, err := m.intents.GetByID(ctx, intent.ID); err == nil && cur != nil && cur.Status != model.IntentPending {
			return finish(model.OutcomeNoMatchingIntent, model.ErrNoMatchingIntent)
		}
		log.Info("transfer has no matching processing draft", "intent_id", intent.ID)
		return finish(model.OutcomeNoMatchingDraft, model.ErrNoMatchingDraft)
	}

	if err := m.intents.ConfirmWithDraft(ctx, intent.ID, draft.ID, t.TxHash, t.SenderWallet, now); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			log.Info("intent already confirmed by a concurrent transfer", "intent_id", intent.ID)
			return finish(model.OutcomeNoMatchingIntent, model.ErrNoMatchingIntent)
		}
		return finish(model.OutcomeError, err)
	}
	stamp(intent, draft, t, now)
	result.Intent, result.Draft = intent, draft
	log.Info("payment confirmed", "intent_id", intent.ID, "draft_id", draft.ID, "sender", t.SenderWallet)
	if m.claims != nil {
		if err := m.claims.Release(ctx, intent.Token, intent.Chain, intent.Amount); err != nil {
			log.Warn("release fingerprint claim failed", "intent_id", intent.ID, "error", err)
		}
	}

	res, err := m.confirmer.Confirm(ctx, *draft, *intent)
	if res.ID != "" {
		result.Reservation = &res
	}
	if err != nil {
		log.Error("booking saga failed", "intent_id", intent.ID, "reservation_status", res.Status, "error", err)
		return finish(model.OutcomeConfirmed, err)
	}

	if m.notifier != nil {
		ev := queue.PaymentEvent{
			IntentID:     intent.ID,
			DraftID:      draft.ID,
			OwnerID:      intent.OwnerID,
			Token:        t.Token,
			Chain:        t.Chain,
			Amount:       amount,
			TxHash:       t.TxHash,
			SenderWallet: t.SenderWallet,
			ContactEmail: draft.Contact.Email,
			ReceivedAt:   now,
		}
		if err := m.notifier.SendPaymentReceived(ctx, ev); err != nil {
			m.metrics.ObserveNotifyFailure("payment_received")
			log.Warn("payment-received notification failed", "error", err)
		}
	}
	return finish(model.OutcomeConfirmed, nil)
}

func stamp(intent *model.PaymentIntent, draft *model.GuestDraftBooking, t model.Transfer, at time.Time) {
	hash, sender := t.TxHash, t.SenderWallet
	intent.Status = model.IntentConfirmed
	intent.TxHash, intent.SenderWallet = &hash, &sender
	intent.UpdatedAt = at
	draft.Status = model.DraftConfirmed
	draft.TxHash, draft.SenderWallet = &hash, &sender
}
