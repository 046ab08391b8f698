package actor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	stageResolve  = "resolve"
	stageAssemble = "assemble"
	stageSign     = "sign"
	stageSubmit   = "submit"
	stageConfirm  = "confirm"
)

// Metrics used in monitoring service.
var (
	transactionsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of transactions accepted by the node",
			Name:      "transactions_sent_total",
			Subsystem: "actor",
			Namespace: "easycontract",
		},
	)

	transactionsReverted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of mined transactions with failed execution",
			Name:      "transactions_reverted_total",
			Subsystem: "actor",
			Namespace: "easycontract",
		},
	)

	stageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of transaction lifecycle failures per stage",
			Name:      "stage_failures_total",
			Subsystem: "actor",
			Namespace: "easycontract",
		},
		[]string{"stage"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Help:      "Transaction lifecycle stage duration",
			Name:      "stage_duration_seconds",
			Subsystem: "actor",
			Namespace: "easycontract",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(
		transactionsSent,
		transactionsReverted,
		stageFailures,
		stageDuration,
	)
}

func observeStage(stage string, start time.Time, err error) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		observeFailure(stage)
	}
}

func observeFailure(stage string) {
	stageFailures.WithLabelValues(stage).Inc()
}
