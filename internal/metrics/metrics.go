// Package metrics holds the Prometheus collectors for swap execution.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Swap outcome labels
const (
	StatusOK       = "ok"
	StatusRejected = "rejected" // failed before the deposit leg
	StatusFatal    = "fatal"    // failed after the deposit leg, rolled back
)

// UnknownPool labels swaps whose pool never resolved
const UnknownPool = "unknown"

// PoolLabel is the pool label value for seed
func PoolLabel(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}

// SwapMetrics holds all Prometheus metrics for swap execution
type SwapMetrics struct {
	SwapsTotal   *prometheus.CounterVec
	SwapVolume   *prometheus.CounterVec
	SwapLatency  prometheus.Histogram
	PoolReserves *prometheus.GaugeVec
	JournalFails prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewSwapMetrics creates the collectors and registers them on reg. A nil reg
// uses a fresh registry.
func NewSwapMetrics(reg *prometheus.Registry) *SwapMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &SwapMetrics{
		SwapsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "amm",
				Subsystem: "swap",
				Name:      "swaps_total",
				Help:      "Total number of swaps attempted, by outcome",
			},
			[]string{"pool", "direction", "status"},
		),
		SwapVolume: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "amm",
				Subsystem: "swap",
				Name:      "volume_total",
				Help:      "Total amount moved through the pool in base units of each asset",
			},
			[]string{"pool", "asset"},
		),
		SwapLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "amm",
				Subsystem: "swap",
				Name:      "latency_seconds",
				Help:      "Swap execution latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		PoolReserves: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "amm",
				Subsystem: "pool",
				Name:      "reserves",
				Help:      "Vault balances after the last committed swap",
			},
			[]string{"pool", "asset"},
		),
		JournalFails: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "amm",
				Subsystem: "journal",
				Name:      "failures_total",
				Help:      "Swap records that could not be journaled",
			},
		),
		gatherer: reg,
	}
}

// ObserveSwap records one swap attempt. pool is a PoolLabel for a resolved
// pool, else UnknownPool. A nil receiver is a no-op.
func (m *SwapMetrics) ObserveSwap(pool, direction, status string, started time.Time) {
	if m == nil {
		return
	}
	m.SwapsTotal.WithLabelValues(pool, direction, status).Inc()
	m.SwapLatency.Observe(time.Since(started).Seconds())
}

// ObserveCommitted records the per-asset volume and resulting reserves of a
// committed swap. volumeX and volumeY are the X and Y amounts moved, whichever
// side each was on.
func (m *SwapMetrics) ObserveCommitted(seed uint64, volumeX, volumeY, reserveX, reserveY uint64) {
	if m == nil {
		return
	}
	pool := PoolLabel(seed)
	m.SwapVolume.WithLabelValues(pool, "x").Add(float64(volumeX))
	m.SwapVolume.WithLabelValues(pool, "y").Add(float64(volumeY))
	m.PoolReserves.WithLabelValues(pool, "x").Set(float64(reserveX))
	m.PoolReserves.WithLabelValues(pool, "y").Set(float64(reserveY))
}

// ObserveJournalFailure counts a record that could not be journaled
func (m *SwapMetrics) ObserveJournalFailure() {
	if m == nil {
		return
	}
	m.JournalFails.Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *SwapMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
