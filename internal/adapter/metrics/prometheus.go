// Package metrics exposes ledger and HTTP instrumentation through Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Collector implements ports.LedgerMetrics and middleware.HTTPObserver.
type Collector struct {
	namespace string

	accountsOpened *prometheus.CounterVec
	transfers      *prometheus.CounterVec
	reversals      *prometheus.CounterVec
	amountMoved    *prometheus.CounterVec

	transferLatency *prometheus.HistogramVec
	reversalLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	return &Collector{
		namespace: namespace,
		accountsOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accounts_opened_total",
				Help:      "Total number of accounts opened",
			},
			[]string{},
		),
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Total number of transfer submissions per outcome",
			},
			[]string{"outcome"},
		),
		reversals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reversals_total",
				Help:      "Total number of reversal requests per outcome",
			},
			[]string{"outcome"},
		),
		amountMoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_amount_total",
				Help:      "Sum of approved transfer values",
			},
			[]string{},
		),
		transferLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Transfer processing latency",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"outcome"},
		),
		reversalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reversal_duration_seconds",
				Help:      "Reversal processing latency",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"outcome"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests per route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency per route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Register registers all metrics with the given Prometheus registry.
func (c *Collector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.accountsOpened,
		c.transfers,
		c.reversals,
		c.amountMoved,
		c.transferLatency,
		c.reversalLatency,
		c.httpRequests,
		c.httpLatency,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// AccountOpened records a successful account opening.
func (c *Collector) AccountOpened() {
	c.accountsOpened.WithLabelValues().Inc()
}

// TransferCompleted records a transfer outcome. value is only added to the
// moved amount when positive.
func (c *Collector) TransferCompleted(outcome string, value decimal.Decimal, elapsed time.Duration) {
	c.transfers.WithLabelValues(outcome).Inc()
	c.transferLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if value.IsPositive() {
		c.amountMoved.WithLabelValues().Add(value.InexactFloat64())
	}
}

// ReversalCompleted records a reversal outcome.
func (c *Collector) ReversalCompleted(outcome string, elapsed time.Duration) {
	c.reversals.WithLabelValues(outcome).Inc()
	c.reversalLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request. route is the matched route
// template, not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
