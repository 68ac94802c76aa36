// Package metrics exposes Prometheus collectors for calculations, the HTTP
// API and pool snapshots.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pairscope"

// Metrics holds the collectors. It implements calc.Recorder.
type Metrics struct {
	calculations *prometheus.CounterVec
	duration     prometheus.Histogram
	impact       prometheus.Histogram
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	block        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Calculation requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent per calculation, including the pool snapshot fetch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		impact: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "real_impact_percent",
			Help:      "Price impact without fee of evaluated trades, in percent.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 15, 25, 50},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		block: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_block_number",
			Help:      "Block number of the last pool snapshot used.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.calculations, m.duration, m.impact, m.requests, m.latency, m.block} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) ObserveCalculation(outcome string, elapsed time.Duration) {
	m.calculations.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.duration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveImpact(realImpactPct float64) {
	m.impact.Observe(realImpactPct)
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SetSnapshotBlock(block uint64) {
	m.block.Set(float64(block))
}
