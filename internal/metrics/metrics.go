package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes used as label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

var (
	ingestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txbridge_ingestions_total",
		Help: "Number of ingestion calls by terminal outcome.",
	}, []string{"outcome"})

	recordsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txbridge_records_processed_total",
		Help: "Number of records that came out of feed parsing.",
	})

	recordsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txbridge_records_saved_total",
		Help: "Number of records committed to the transaction store.",
	})

	recordErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txbridge_record_errors_total",
		Help: "Number of records dropped with a record-level error.",
	})
)

// ObserveIngestion records the outcome of one ingestion call.
func ObserveIngestion(outcome string, processed, saved, failed int) {
	ingestionsTotal.WithLabelValues(outcome).Inc()
	recordsProcessedTotal.Add(float64(processed))
	recordsSavedTotal.Add(float64(saved))
	recordErrorsTotal.Add(float64(failed))
}
