package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics exposes Prometheus collectors for money movements.
type Metrics struct {
	ledgerEntries *prometheus.CounterVec
	ledgerVolume  *prometheus.CounterVec
	commissions   *prometheus.CounterVec
	withdrawals   *prometheus.CounterVec
	released      prometheus.Counter
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the instance registered with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors on reg, reusing ones that are already there.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		ledgerEntries: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "course_ledger",
			Subsystem: "wallet",
			Name:      "entries_total",
			Help:      "Ledger entries written, by kind and direction.",
		}, []string{"kind", "direction"})),
		ledgerVolume: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "course_ledger",
			Subsystem: "wallet",
			Name:      "volume_total",
			Help:      "Absolute amount moved through the ledger, by kind and direction.",
		}, []string{"kind", "direction"})),
		commissions: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "course_ledger",
			Subsystem: "commissions",
			Name:      "transitions_total",
			Help:      "Commission rows created or settled.",
		}, []string{"type", "status"})),
		withdrawals: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "course_ledger",
			Subsystem: "withdrawals",
			Name:      "transitions_total",
			Help:      "Withdrawal and payout requests by type and resulting status.",
		}, []string{"type", "status"})),
		released: registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "course_ledger",
			Subsystem: "commissions",
			Name:      "released_total",
			Help:      "Affiliate commissions moved from pending to available.",
		})),
	}
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func (m *Metrics) ObserveEntry(kind, direction string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(kind, direction).Inc()
	m.ledgerVolume.WithLabelValues(kind, direction).Add(amount.Abs().InexactFloat64())
}

func (m *Metrics) IncCommission(kind, status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.commissions.WithLabelValues(kind, status).Add(float64(n))
}

func (m *Metrics) IncWithdrawal(kind, status string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) AddReleased(n int64) {
	if m == nil || n == 0 {
		return
	}
	m.released.Add(float64(n))
}
