package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal     *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	lastPrice      *prometheus.GaugeVec
	unavailable    *prometheus.GaugeVec
	buildDuration  *prometheus.HistogramVec
	refreshTotal   *prometheus.CounterVec
	refreshSkipped prometheus.Counter
	errorsTotal    *prometheus.CounterVec
}

// New registers the collectors with the default registerer.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewindow_source_fetch_total",
				Help: "Price source attempts by outcome",
			},
			[]string{"source", "outcome"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricewindow_source_fetch_duration_seconds",
				Help:    "Duration of price source attempts in seconds",
				Buckets: []float64{.025, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"source"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricewindow_last_price",
				Help: "Last price served per asset and source",
			},
			[]string{"asset", "source"},
		),
		unavailable: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricewindow_unavailable_quotes",
				Help: "Records without a usable quote in the latest snapshot",
			},
			[]string{"window"},
		),
		buildDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricewindow_snapshot_build_duration_seconds",
				Help:    "Duration of snapshot builds in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"window"},
		),
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewindow_refresh_total",
				Help: "Refresh ticks by outcome",
			},
			[]string{"outcome"},
		),
		refreshSkipped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pricewindow_refresh_skipped_total",
				Help: "Refresh ticks skipped because the previous one was still running",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewindow_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordFetch records one source attempt. Skipped attempts carry no latency.
func (r *Recorder) RecordFetch(source, outcome string, seconds float64) {
	r.fetchTotal.WithLabelValues(source, outcome).Inc()
	if seconds > 0 {
		r.fetchLatency.WithLabelValues(source).Observe(seconds)
	}
}

func (r *Recorder) RecordLastPrice(asset, source string, price float64) {
	r.lastPrice.WithLabelValues(asset, source).Set(price)
}

func (r *Recorder) RecordUnavailable(window string, n int) {
	r.unavailable.WithLabelValues(window).Set(float64(n))
}

func (r *Recorder) RecordBuild(window string, seconds float64) {
	r.buildDuration.WithLabelValues(window).Observe(seconds)
}

// RecordRefresh counts a tick; "skipped" also feeds the dedicated counter.
func (r *Recorder) RecordRefresh(outcome string) {
	r.refreshTotal.WithLabelValues(outcome).Inc()
	if outcome == "skipped" {
		r.refreshSkipped.Inc()
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
