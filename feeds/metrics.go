package feeds

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memegram_source_fetches_total",
		Help: "Upstream page fetches by outcome",
	}, []string{"outcome"})

	recordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memegram_source_records_dropped_total",
		Help: "Raw upstream records dropped by the filter chain",
	}, []string{"reason"})

	itemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memegram_source_items_total",
		Help: "Normalized feed items returned to callers",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memegram_source_fetch_duration_seconds",
		Help:    "Duration of upstream page fetches including retries",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})
)
