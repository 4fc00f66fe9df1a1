package publish

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publisher specific metrics are defined and initialized here.

var (
	// stageLabel is the label included in all metrics collected by the publisher
	stageLabel = prometheus.Labels{"stage": "publisher"}

	// metricInventoryDataChanges measures the number of record additions, updates sent to the inventory sink.
	metricInventoryDataChanges *prometheus.GaugeVec

	// metricSinkRecordsWritten measures the count of records written, per sink kind.
	metricSinkRecordsWritten *prometheus.CounterVec
)

func init() {
	metricInventoryDataChanges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assay_inventory_data_changes",
			Help: "A gauge metric to measure the number of record additions and updates sent to the inventory sink",
		},
		[]string{"stage", "change_kind"},
	)

	metricSinkRecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_sink_records_written_total",
			Help: "A counter metric to measure the total count of records written to the configured sink.",
		},
		[]string{"stage", "sink"},
	)
}
