package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ClassifierLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricewindow",
			Subsystem: "classifier",
			Name:      "latency_seconds",
			Help:      "Latency of signal classification by strategy",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	ClassifierErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewindow",
			Subsystem: "classifier",
			Name:      "errors_total",
			Help:      "Classification failures by strategy",
		},
		[]string{"strategy"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ClassifierLatency, ClassifierErrors)
	})
}
