package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BaseSpotPrice = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbwatcher_base_spot_price",
		Help: "Latest Base venue spot price (stable units per notional)",
	})

	ModeSpotPrice = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbwatcher_mode_spot_price",
		Help: "Latest Mode venue spot price (stable units per notional)",
	})

	BaseToModeYield = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbwatcher_base_to_mode_yield",
		Help: "Latest round-trip yield for the base->mode direction (token units)",
	})

	ModeToBaseYield = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbwatcher_mode_to_base_yield",
		Help: "Latest round-trip yield for the mode->base direction (token units)",
	})

	CycleFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbwatcher_cycle_failures_total",
		Help: "Polling cycles abandoned, by failing stage",
	}, []string{"stage"})

	AlertsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbwatcher_alerts_sent_total",
		Help: "Alert messages dispatched, by kind",
	}, []string{"kind"})

	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbwatcher_cycle_duration_seconds",
		Help:    "Wall time of one successful polling cycle",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		BaseSpotPrice,
		ModeSpotPrice,
		BaseToModeYield,
		ModeToBaseYield,
		CycleFailures,
		AlertsSent,
		CycleDuration,
	)
}
