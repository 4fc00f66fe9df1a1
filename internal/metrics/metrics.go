package metrics

import (
	"log"
	"net/http"

	"github.com/asset-toolbox/assay/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics shared across packages are defined and initialized here.

var (
	// TasksDispatched measures the count of tasks dispatched to publish asset records.
	TasksDispatched *prometheus.CounterVec

	// TasksCompleted measures the count of publish tasks that returned after being spawned.
	TasksCompleted *prometheus.CounterVec

	// RecordsRetrieved measures the count of asset records retrieved from the inventory API.
	RecordsRetrieved *prometheus.CounterVec

	// RecordsSent measures the count of records sent over the record channel to the publisher.
	RecordsSent *prometheus.CounterVec

	// RecordsPublished measures the count of records handed to the configured sink.
	RecordsPublished *prometheus.CounterVec

	// TaskQueueSize measures the number of records waiting for a publish worker.
	TaskQueueSize *prometheus.GaugeVec

	// PublishErrorCount counts the number of errors returned by the configured sink.
	PublishErrorCount *prometheus.CounterVec
)

func init() {
	TasksDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_task_dispatched_total",
			Help: "A counter metric to measure the total count of tasks dispatched to publish records retrieved from the inventory API",
		},
		[]string{"stage"},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_task_completed_total",
			Help: "A counter metric to measure the total count of tasks that completed publishing records to the configured sink",
		},
		[]string{"stage"},
	)

	RecordsRetrieved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_records_retrieved_total",
			Help: "A counter metric to measure the total count of asset records retrieved from the inventory API",
		},
		[]string{"stage"},
	)

	RecordsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_records_sent_total",
			Help: "A counter metric to measure the total count of records sent on the record channel to the publisher stage",
		},
		[]string{"stage"},
	)

	RecordsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_records_published_total",
			Help: "A counter metric to measure the total count of records handed to the configured sink",
		},
		[]string{"stage"},
	)
	prometheus.MustRegister(RecordsPublished)

	TaskQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assay_task_queue_size",
			Help: "A gauge metric to measure the number of records waiting for a worker in the publish worker pool",
		},
		[]string{"stage"},
	)

	PublishErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_publish_errors_total",
			Help: "A counter metric to measure the total count of errors returned by the configured sink.",
		},
		[]string{"stage"},
	)
}

// ListenAndServe exposes prometheus metrics as /metrics
func ListenAndServe() {
	go func() {
		http.Handle("/metrics", promhttp.Handler())

		err := http.ListenAndServe(model.MetricsEndpoint, nil)
		if err != nil {
			log.Println(err)
		}
	}()
}

// AddLabels returns a new map of labels with the current and add labels included.
func AddLabels(current, add prometheus.Labels) prometheus.Labels {
	returned := map[string]string{}

	for l, v := range current {
		returned[l] = v
	}

	for l, v := range add {
		returned[l] = v
	}

	return returned
}
