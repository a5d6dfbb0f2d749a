package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/hotel-crypto-reservation/internal/clock"
	"github.com/iliyamo/hotel-crypto-reservation/internal/metrics"
)

// SweepResult counts the records cancelled by one sweep.
type SweepResult struct {
	Intents int64
	Drafts  int64
}

// Sweeper periodically cancels pending intents and processing drafts that
// outlived the matching window.  Nothing was reserved for them, so no
// inventory is touched.
type Sweeper struct {
	intents  IntentStore
	drafts   DraftStore
	clock    clock.Clock
	timeout  time.Duration
	interval time.Duration
	metrics  *metrics.Booking
	logger   *slog.Logger
}

// SweeperOption customises a Sweeper.
type SweeperOption func(*Sweeper)

// WithTimeout sets the staleness timeout.
func WithTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithInterval sets how often Run sweeps.
func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSweeperMetrics records swept counts on m.
func WithSweeperMetrics(m *metrics.Booking) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

// WithSweeperLogger sets the logger.
func WithSweeperLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSweeper builds a Sweeper with a 40 minute timeout and a 1 minute
// interval unless overridden.
func NewSweeper(intents IntentStore, drafts DraftStore, clk clock.Clock, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		intents:  intents,
		drafts:   drafts,
		clock:    clk,
		timeout:  DefaultWindow,
		interval: time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepOnce cancels every stale record.  Intents and drafts are swept
// independently; the first error is returned after both were attempted.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.timeout)
	var res SweepResult
	var ierr, derr error
	res.Intents, ierr = s.intents.CancelStale(ctx, cutoff, now)
	res.Drafts, derr = s.drafts.CancelStale(ctx, cutoff, now)
	s.metrics.ObserveSweep(res.Intents, res.Drafts)
	if res.Intents > 0 || res.Drafts > 0 {
		s.logger.Info("expired stale records", "intents", res.Intents, "drafts", res.Drafts, "cutoff", cutoff.Format(time.RFC3339))
	}
	return res, errors.Join(ierr, derr)
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
