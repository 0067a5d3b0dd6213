package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loketkita_transactions_created_total",
			Help: "Transactions created",
		},
	)

	transactionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loketkita_transaction_transitions_total",
			Help: "Transaction status transitions by target status and trigger",
		},
		[]string{"status", "source"},
	)

	sweepRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loketkita_sweep_rows_total",
			Help: "Rows handled by sweepers",
		},
		[]string{"sweeper", "result"},
	)

	sweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loketkita_sweep_duration_seconds",
			Help:    "Duration of sweeper runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"sweeper"},
	)

	ledgerEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loketkita_point_ledger_entries_total",
			Help: "Point ledger entries written by type",
		},
		[]string{"type"},
	)
)

func TrackTransactionCreated() {
	transactionsCreated.Inc()
}

func TrackTransition(status, source string) {
	transactionTransitions.WithLabelValues(status, source).Inc()
}

func TrackSweep(sweeper string, processed, skipped, failed int, took time.Duration) {
	sweepRows.WithLabelValues(sweeper, "processed").Add(float64(processed))
	sweepRows.WithLabelValues(sweeper, "skipped").Add(float64(skipped))
	sweepRows.WithLabelValues(sweeper, "failed").Add(float64(failed))
	sweepDuration.WithLabelValues(sweeper).Observe(took.Seconds())
}

func TrackLedgerEntry(entryType string) {
	ledgerEntries.WithLabelValues(entryType).Inc()
}
