package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector specific metrics are defined and initialized here.

var (
	// StageLabelCollector is the label included in all metrics collected by the collector
	StageLabelCollector = prometheus.Labels{"stage": "collector"}

	// StageLabelPublisher is the label included in all metrics collected by the publisher
	StageLabelPublisher = prometheus.Labels{"stage": "publisher"}

	// metricInventoryQueryTimeSummary measures the time spent querying the inventory API.
	metricInventoryQueryTimeSummary *prometheus.SummaryVec

	// metricInventoryQueryErrorCount counts the number of query errors - when querying the inventory API.
	metricInventoryQueryErrorCount *prometheus.CounterVec
)

func init() {
	metricInventoryQueryTimeSummary = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "assay_inventory_query_duration_seconds",
			Help: "A summary metric to measure the duration to query records from the inventory API",
		},
		[]string{"stage", "query_kind", "scope"},
	)

	metricInventoryQueryErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_inventory_query_errors_total",
			Help: "A counter metric to measure the total count of errors when querying the inventory API.",
		},
		[]string{"stage", "query_kind", "scope"},
	)
}

// count inventory query errors if the scope attribute is available
func IncrementInventoryQueryErrorCount(scope, queryKind string) {
	if scope == "" {
		scope = "unknown"
	}

	// count query error metric
	metricInventoryQueryErrorCount.With(
		AddLabels(
			StageLabelCollector,
			prometheus.Labels{
				"query_kind": queryKind,
				"scope":      scope,
			}),
	).Inc()
}

// collect inventory query time metrics
func ObserveInventoryQueryTimeSummary(scope, queryKind string, startTS time.Time) {
	if scope == "" {
		scope = "unknown"
	}

	// measure inventory query time from the given startTS
	metricInventoryQueryTimeSummary.With(
		AddLabels(
			StageLabelCollector,
			prometheus.Labels{
				"query_kind": queryKind,
				"scope":      scope,
			}),
	).Observe(time.Since(startTS).Seconds())
}
