package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type SweeperMetrics struct {
	ticks          *prometheus.CounterVec
	assetsReturned prometheus.Counter
	tickDuration   prometheus.Histogram
	lastTick       prometheus.Gauge
}

var (
	sweeperOnce     sync.Once
	sweeperRegistry *SweeperMetrics
)

func Sweeper() *SweeperMetrics {
	sweeperOnce.Do(func() {
		sweeperRegistry = &SweeperMetrics{
			ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "sweeper_ticks_total",
				Help: "Count of sweep passes segmented by outcome.",
			}, []string{"outcome"}),
			assetsReturned: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sweeper_assets_returned_total",
				Help: "Number of overdue assets returned to their creators.",
			}),
			tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "sweeper_tick_duration_seconds",
				Help:    "Latency distribution for full sweep passes.",
				Buckets: prometheus.DefBuckets,
			}),
			lastTick: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sweeper_last_tick_timestamp_seconds",
				Help: "Unix timestamp of the most recent completed sweep pass.",
			}),
		}
		prometheus.MustRegister(
			sweeperRegistry.ticks,
			sweeperRegistry.assetsReturned,
			sweeperRegistry.tickDuration,
			sweeperRegistry.lastTick,
		)
	})
	return sweeperRegistry
}

func (m *SweeperMetrics) ObserveTick(returned int, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ticks.WithLabelValues(outcome).Inc()
	if returned > 0 {
		m.assetsReturned.Add(float64(returned))
	}
	m.tickDuration.Observe(seconds)
}

func (m *SweeperMetrics) SetLastTick(unixSeconds int64) {
	if m == nil {
		return
	}
	m.lastTick.Set(float64(unixSeconds))
}
