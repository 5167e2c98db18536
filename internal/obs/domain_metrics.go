package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartCalculationsTotal counts cart calculation runs by outcome.
	CartCalculationsTotal *prometheus.CounterVec
	// CartCalculationDuration records cart calculation latency in milliseconds.
	CartCalculationDuration prometheus.Histogram
	// CartLineItems observes how many line items a calculated cart carries.
	CartLineItems prometheus.Histogram
	// OrdersPlacedTotal counts carts converted into orders.
	OrdersPlacedTotal prometheus.Counter
	// VouchersRejectedTotal counts vouchers excluded by their eligibility rule.
	VouchersRejectedTotal prometheus.Counter
	// CartsPurgedTotal counts expired carts removed by the purge worker.
	CartsPurgedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartCalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_calculations_total",
			Help:      "Count of cart calculation runs by outcome.",
		}, []string{"result"})
		CartCalculationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_calculation_duration_ms",
			Help:      "Latency of full cart calculations in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		})
		CartLineItems = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_line_items",
			Help:      "Number of line items per calculated cart.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		})
		OrdersPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Number of carts converted into orders.",
		})
		VouchersRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vouchers_rejected_total",
			Help:      "Number of vouchers excluded by their eligibility rule.",
		})
		CartsPurgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_purged_total",
			Help:      "Number of expired carts removed by the purge worker.",
		})

		mustRegisterCollector(reg, CartCalculationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartCalculationsTotal = v
			}
		})
		mustRegisterCollector(reg, CartCalculationDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CartCalculationDuration = v
			}
		})
		mustRegisterCollector(reg, CartLineItems, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CartLineItems = v
			}
		})
		mustRegisterCollector(reg, OrdersPlacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersPlacedTotal = v
			}
		})
		mustRegisterCollector(reg, VouchersRejectedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				VouchersRejectedTotal = v
			}
		})
		mustRegisterCollector(reg, CartsPurgedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartsPurgedTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
