// Package metrics exposes the Prometheus collectors of the booking core.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Booking groups the counters updated by the reconciliation services.
type Booking struct {
	allocations    *prometheus.CounterVec
	reconciles     *prometheus.CounterVec
	sweptIntents   prometheus.Counter
	sweptDrafts    prometheus.Counter
	sagaTerminal   *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec
}

var (
	bookingOnce     sync.Once
	bookingRegistry *Booking
)

// Default returns the process-wide collectors, registering them with the
// default Prometheus registry on first use.
func Default() *Booking {
	bookingOnce.Do(func() {
		bookingRegistry = New()
		prometheus.MustRegister(bookingRegistry.Collectors()...)
	})
	return bookingRegistry
}

// New builds an unregistered set of collectors.  Tests use it to avoid
// touching the global registry.
func New() *Booking {
	return &Booking{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "allocator",
			Name:      "allocations_total",
			Help:      "Fingerprint allocation attempts partitioned by result.",
		}, []string{"result"}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "matcher",
			Name:      "transfers_total",
			Help:      "Reported transfers partitioned by reconciliation outcome.",
		}, []string{"outcome"}),
		sweptIntents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "sweeper",
			Name:      "intents_cancelled_total",
			Help:      "Pending intents cancelled by the expiry sweep.",
		}),
		sweptDrafts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "sweeper",
			Name:      "drafts_cancelled_total",
			Help:      "Processing drafts cancelled by the expiry sweep.",
		}),
		sagaTerminal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "orchestrator",
			Name:      "reservations_total",
			Help:      "Reservations reaching a terminal saga state.",
		}, []string{"status"}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "notify",
			Name:      "publish_failures_total",
			Help:      "Notification publishes that failed and were dropped.",
		}, []string{"kind"}),
	}
}

// Collectors lists every collector for registration.
func (b *Booking) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		b.allocations, b.reconciles, b.sweptIntents, b.sweptDrafts, b.sagaTerminal, b.notifyFailures,
	}
}

// ObserveAllocation records one allocation attempt ("ok", "exhausted", "error").
func (b *Booking) ObserveAllocation(result string) {
	if b == nil {
		return
	}
	b.allocations.WithLabelValues(result).Inc()
}

// ObserveReconcile records the outcome of one reported transfer.
func (b *Booking) ObserveReconcile(outcome string) {
	if b == nil {
		return
	}
	b.reconciles.WithLabelValues(outcome).Inc()
}

// ObserveSweep adds the rows cancelled by one sweep.
func (b *Booking) ObserveSweep(intents, drafts int64) {
	if b == nil {
		return
	}
	b.sweptIntents.Add(float64(intents))
	b.sweptDrafts.Add(float64(drafts))
}

// ObserveSaga records a reservation reaching status.
func (b *Booking) ObserveSaga(status string) {
	if b == nil {
		return
	}
	b.sagaTerminal.WithLabelValues(status).Inc()
}

// ObserveNotifyFailure records a dropped notification of the given kind.
func (b *Booking) ObserveNotifyFailure(kind string) {
	if b == nil {
		return
	}
	b.notifyFailures.WithLabelValues(kind).Inc()
}
