package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/clock"
	"github.com/iliyamo/hotel-crypto-reservation/internal/metrics"
	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// DefaultWindow is the disambiguation window: no two pending intents for
// the same token and chain created within it share an amount.  It is also
// the staleness timeout enforced by the Sweeper.
const DefaultWindow = 40 * time.Minute

const defaultSteps = 100

var cent = decimal.New(1, -2)

// Claimer reserves a fingerprint key for a limited time.  Claim returns
// false when another caller already holds the key.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisClaimer claims keys with SET NX EX so allocation is linearizable
// across every process sharing the Redis instance.
type RedisClaimer struct {
	rdb *redis.Client
}

// NewRedisClaimer returns a Claimer backed by rdb.
func NewRedisClaimer(rdb *redis.Client) *RedisClaimer { return &RedisClaimer{rdb: rdb} }

func (c *RedisClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// MemoryClaimer is a process-local Claimer used when Redis is not
// configured and in tests.  It only serialises callers inside one process.
type MemoryClaimer struct {
	mu     sync.Mutex
	clock  clock.Clock
	claims map[string]time.Time
}

// NewMemoryClaimer returns an empty MemoryClaimer.
func NewMemoryClaimer(clk clock.Clock) *MemoryClaimer {
	return &MemoryClaimer{clock: clk, claims: make(map[string]time.Time)}
}

func (c *MemoryClaimer) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if exp, ok := c.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	c.claims[key] = now.Add(ttl)
	return true, nil
}

func (c *MemoryClaimer) Release(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.claims, key)
	c.mu.Unlock()
	return nil
}

// Allocator hands out fingerprinted amounts.  Candidates are tried in
// order base, base+0.01, ... and the first one that has no recent pending
// intent and can be claimed wins.
type Allocator struct {
	intents IntentStore
	claims  Claimer
	clock   clock.Clock
	window  time.Duration
	steps   int
	metrics *metrics.Booking
	logger  *slog.Logger
}

// AllocatorOption customises an Allocator.
type AllocatorOption func(*Allocator)

// WithAllocatorWindow overrides the disambiguation window.
func WithAllocatorWindow(d time.Duration) AllocatorOption {
	return func(a *Allocator) {
		if d > 0 {
			a.window = d
		}
	}
}

// WithSteps limits how many perturbations are tried (1..100).
func WithSteps(n int) AllocatorOption {
	return func(a *Allocator) {
		if n >= 1 && n <= defaultSteps {
			a.steps = n
		}
	}
}

// WithAllocatorMetrics records allocation results on m.
func WithAllocatorMetrics(m *metrics.Booking) AllocatorOption {
	return func(a *Allocator) { a.metrics = m }
}

// WithAllocatorLogger sets the logger.
func WithAllocatorLogger(l *slog.Logger) AllocatorOption {
	return func(a *Allocator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAllocator builds an Allocator.
func NewAllocator(intents IntentStore, claims Claimer, clk clock.Clock, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		intents: intents,
		claims:  claims,
		clock:   clk,
		window:  DefaultWindow,
		steps:   defaultSteps,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Window returns the disambiguation window.
func (a *Allocator) Window() time.Duration { return a.window }

// Allocate returns the first free fingerprint of base for token/chain.
// The returned amount is claimed for the window; callers that fail to
// persist an intent for it must call Release.
func (a *Allocator) Allocate(ctx context.Context, token, chain string, base decimal.Decimal) (decimal.Decimal, error) {
	base = base.Round(2)
	if !base.IsPositive() {
		return decimal.Zero, model.ErrInvalidAmount
	}
	since := a.clock.Now().Add(-a.window)
	for i := 0; i < a.steps; i++ {
		candidate := base.Add(cent.Mul(decimal.NewFromInt(int64(i))))
		taken, err := a.intents.PendingAmountExists(ctx, token, chain, candidate, since)
		if err != nil {
			a.metrics.ObserveAllocation("error")
			return decimal.Zero, fmt.Errorf("allocate: check %s: %w", candidate.StringFixed(2), err)
		}
		if taken {
			continue
		}
		ok, err := a.claims.Claim(ctx, claimKey(token, chain, candidate), a.window)
		if err != nil {
			a.metrics.ObserveAllocation("error")
			return decimal.Zero, fmt.Errorf("allocate: claim %s: %w", candidate.StringFixed(2), err)
		}
		if ok {
			a.metrics.ObserveAllocation("ok")
			return candidate, nil
		}
	}
	a.metrics.ObserveAllocation("exhausted")
	a.logger.Warn("fingerprint allocator exhausted", "token", token, "chain", chain, "base", base.StringFixed(2))
	return decimal.Zero, model.ErrAllocatorExhausted
}

// Release drops the claim on amount.
func (a *Allocator) Release(ctx context.Context, token, chain string, amount decimal.Decimal) error {
	return a.claims.Release(ctx, claimKey(token, chain, amount))
}

func claimKey(token, chain string, amount decimal.Decimal) string {
	return "fp:" + strings.ToUpper(token) + ":" + strings.ToUpper(chain) + ":" + amount.StringFixed(2)
}
