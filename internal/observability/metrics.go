package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL
// pipeline.
type Metrics struct {
	DaysProcessed   prometheus.Counter
	DaysNoData      prometheus.Counter
	DayFailures     prometheus.Counter
	PipelineRunning prometheus.Gauge

	FilesHydrated        *prometheus.CounterVec // labels: instrument
	LayerEventsPublished prometheus.Counter

	FuseDuration     prometheus.Histogram
	DayBuildDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DaysProcessed,
		m.DaysNoData,
		m.DayFailures,
		m.PipelineRunning,
		m.FilesHydrated,
		m.LayerEventsPublished,
		m.FuseDuration,
		m.DayBuildDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DaysProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmask_etl",
			Name:      "days_processed_total",
			Help:      "Days fused and published successfully.",
		}),
		DaysNoData: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmask_etl",
			Name:      "days_no_data_total",
			Help:      "Days skipped because no instrument sample fell inside them.",
		}),
		DayFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmask_etl",
			Name:      "day_failures_total",
			Help:      "Days aborted by a processing error.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cloudmask_etl",
			Name:      "pipeline_running",
			Help:      "1 while the month loop is active, 0 after shutdown.",
		}),
		FilesHydrated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cloudmask_etl",
			Name:      "files_hydrated_total",
			Help:      "Instrument files hydrated from the store, by instrument.",
		}, []string{"instrument"}),
		LayerEventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmask_etl",
			Name:      "layer_events_published_total",
			Help:      "Per-day layer summaries published to the sink topic.",
		}),
		FuseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cloudmask_etl",
			Name:      "fuse_duration_seconds",
			Help:      "Duration of one day's grid fusion.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DayBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cloudmask_etl",
			Name:      "day_build_duration_seconds",
			Help:      "Duration of one day's select-hydrate-reindex stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
