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
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// IntentService is the payment intent registry.
type IntentService struct {
	intents   IntentStore
	coupons   CouponStore
	allocator *Allocator
	converter Converter
	clock     clock.Clock
	logger    *slog.Logger
}

// IntentOption customises an IntentService.
type IntentOption func(*IntentService)

// WithConverter enables fiat-quoted intents.
func WithConverter(c Converter) IntentOption {
	return func(s *IntentService) { s.converter = c }
}

// WithIntentLogger sets the logger.
func WithIntentLogger(l *slog.Logger) IntentOption {
	return func(s *IntentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewIntentService builds an IntentService.  coupons may be nil, in which
// case coupon codes are stored but never resolved.
func NewIntentService(intents IntentStore, coupons CouponStore, allocator *Allocator, clk clock.Clock, opts ...IntentOption) *IntentService {
	s := &IntentService{
		intents:   intents,
		coupons:   coupons,
		allocator: allocator,
		clock:     clk,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIntentInput is what a customer submits to start a payment.  When
// FiatCurrency is set BaseAmount is a fiat amount and is converted to the
// token first.
type CreateIntentInput struct {
	OwnerID      uint64
	Channel      model.Channel
	Token        string
	Chain        string
	BaseAmount   decimal.Decimal
	FiatCurrency string
	CouponCodes  []string
	TaxValue     decimal.Decimal
}

// IntentView is a created or fetched intent together with its resolved
// coupon metadata and the end of its matching window.
type IntentView struct {
	Intent    model.PaymentIntent
	Coupons   []model.Coupon
	ExpiresAt time.Time
}

// CreateIntent validates the input, allocates a fingerprinted amount and
// persists a new pending intent.
func (s *IntentService) CreateIntent(ctx context.Context, in CreateIntentInput) (IntentView, error) {
	token, chain := normalizeAsset(in.Token, in.Chain)
	if in.OwnerID == 0 || token == "" || chain == "" || in.Channel == "" {
		return IntentView{}, fmt.Errorf("%w: owner, channel, token and chain are required", model.ErrMissingFields)
	}
	if !in.Channel.Valid() {
		return IntentView{}, fmt.Errorf("%w: unknown channel %q", model.ErrMissingFields, in.Channel)
	}
	if !in.BaseAmount.IsPositive() {
		return IntentView{}, fmt.Errorf("%w: base amount must be positive", model.ErrMissingFields)
	}
	if in.TaxValue.IsNegative() {
		return IntentView{}, fmt.Errorf("%w: tax value must not be negative", model.ErrInvalidAmount)
	}

	base := in.BaseAmount
	if in.FiatCurrency != "" {
		if s.converter == nil {
			return IntentView{}, fmt.Errorf("%w: fiat quotes are not enabled", model.ErrInvalidAmount)
		}
		converted, err := s.converter.Convert(ctx, base, in.FiatCurrency, token)
		if err != nil {
			return IntentView{}, err
		}
		base = converted
	}
	base = base.Round(2)

	amount, err := s.allocator.Allocate(ctx, token, chain, base)
	if err != nil {
		return IntentView{}, err
	}

	now := s.clock.Now()
	intent := model.PaymentIntent{
		OwnerID:     in.OwnerID,
		Channel:     in.Channel,
		Token:       token,
		Chain:       chain,
		BaseAmount:  base,
		Amount:      amount,
		Status:      model.IntentPending,
		CouponCodes: normalizeCodes(in.CouponCodes),
		TaxValue:    in.TaxValue.Round(2),
		CreatedAt:   now,
	}
	if err := s.intents.Create(ctx, &intent); err != nil {
		if rerr := s.allocator.Release(ctx, token, chain, amount); rerr != nil {
			s.logger.Warn("release fingerprint claim failed", "amount", amount.StringFixed(2), "error", rerr)
		}
		return IntentView{}, fmt.Errorf("create intent: %w", err)
	}

	coupons, err := s.resolveCoupons(ctx, intent.CouponCodes)
	if err != nil {
		// The intent exists; coupon metadata is informational.
		s.logger.Warn("resolve coupons failed", "intent_id", intent.ID, "error", err)
	}
	s.logger.Info("payment intent created",
		"intent_id", intent.ID, "owner_id", intent.OwnerID, "token", token, "chain", chain,
		"base_amount", base.StringFixed(2), "amount", amount.StringFixed(2))
	return IntentView{Intent: intent, Coupons: coupons, ExpiresAt: now.Add(s.allocator.Window())}, nil
}

// LookupPending returns the owner's newest pending intent for base that is
// still inside the matching window.
func (s *IntentService) LookupPending(ctx context.Context, ownerID uint64, base decimal.Decimal) (IntentView, error) {
	if ownerID == 0 || !base.IsPositive() {
		return IntentView{}, model.ErrMissingFields
	}
	since := s.clock.Now().Add(-s.allocator.Window())
	intent, err := s.intents.FindPendingByOwnerBase(ctx, ownerID, base.Round(2), since)
	if err != nil {
		return IntentView{}, err
	}
	if intent == nil {
		return IntentView{}, model.ErrIntentNotFound
	}
	return s.view(ctx, intent), nil
}

// Status returns the owner's newest intent with the given fingerprinted
// amount in any status.
func (s *IntentService) Status(ctx context.Context, ownerID uint64, amount decimal.Decimal) (IntentView, error) {
	if ownerID == 0 || !amount.IsPositive() {
		return IntentView{}, model.ErrMissingFields
	}
	intent, err := s.intents.FindLatestByOwnerAmount(ctx, ownerID, amount.Round(2))
	if err != nil {
		return IntentView{}, err
	}
	if intent == nil {
		return IntentView{}, model.ErrIntentNotFound
	}
	return s.view(ctx, intent), nil
}

func (s *IntentService) view(ctx context.Context, intent *model.PaymentIntent) IntentView {
	coupons, err := s.resolveCoupons(ctx, intent.CouponCodes)
	if err != nil {
		s.logger.Warn("resolve coupons failed", "intent_id", intent.ID, "error", err)
	}
	return IntentView{Intent: *intent, Coupons: coupons, ExpiresAt: intent.CreatedAt.Add(s.allocator.Window())}
}

// resolveCoupons looks codes up in both coupon stores.  A hotel coupon
// replaces a platform coupon with the same code; the result keeps the
// order of codes.
func (s *IntentService) resolveCoupons(ctx context.Context, codes []string) ([]model.Coupon, error) {
	if s.coupons == nil || len(codes) == 0 {
		return nil, nil
	}
	platform, perr := s.coupons.PlatformCoupons(ctx, codes)
	hotel, herr := s.coupons.HotelCoupons(ctx, codes)
	byCode := make(map[string]model.Coupon, len(platform)+len(hotel))
	for _, c := range platform {
		byCode[strings.ToUpper(c.Code)] = c
	}
	for _, c := range hotel {
		byCode[strings.ToUpper(c.Code)] = c
	}
	out := make([]model.Coupon, 0, len(byCode))
	for _, code := range codes {
		if c, ok := byCode[code]; ok {
			out = append(out, c)
		}
	}
	return out, errors.Join(perr, herr)
}

func normalizeAsset(token, chain string) (string, string) {
	return strings.ToUpper(strings.TrimSpace(token)), strings.ToUpper(strings.TrimSpace(chain))
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	var out []string
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
