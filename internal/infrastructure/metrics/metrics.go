package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Run metrics
	RunsStarted   *prometheus.CounterVec
	RunsCompleted *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	FinalBalance  prometheus.Gauge

	// Transaction metrics
	TransactionsProcessed prometheus.Counter
	TransactionsPosted    prometheus.Counter
	TransactionsFlagged   *prometheus.CounterVec
	EntriesPosted         prometheus.Counter

	// Data quality metrics
	QualityIssues *prometheus.CounterVec

	// Review metrics
	ReviewItemsExported  prometheus.Counter
	ReviewExportFailures prometheus.Counter
	DecisionsApplied     prometheus.Counter

	// Invariant metrics
	InvariantViolations *prometheus.CounterVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Run metrics
		RunsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_runs_started_total",
				Help: "Total reconciliation runs started, by mode",
			},
			[]string{"mode"},
		),
		RunsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_runs_completed_total",
				Help: "Total reconciliation runs completed, by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_run_duration_seconds",
			Help:    "Duration of reconciliation runs",
			Buckets: prometheus.DefBuckets,
		}),
		FinalBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "splitledger_final_balance",
			Help: "Final balance of the most recent run, positive when party B owes party A",
		}),

		// Transaction metrics
		TransactionsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_transactions_processed_total",
			Help: "Total transactions processed",
		}),
		TransactionsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_transactions_posted_total",
			Help: "Total transactions posted to the ledger",
		}),
		TransactionsFlagged: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_transactions_flagged_total",
				Help: "Total transactions held for manual review, by reason",
			},
			[]string{"reason"},
		),
		EntriesPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_entries_posted_total",
			Help: "Total ledger entries posted",
		}),

		// Data quality metrics
		QualityIssues: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_quality_issues_total",
				Help: "Total data quality issues detected, by kind",
			},
			[]string{"kind"},
		),

		// Review metrics
		ReviewItemsExported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_review_items_exported_total",
			Help: "Total review items exported to the review store",
		}),
		ReviewExportFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_review_export_failures_total",
			Help: "Total review queue exports that failed",
		}),
		DecisionsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_decisions_applied_total",
			Help: "Total review decisions applied during runs",
		}),

		// Invariant metrics
		InvariantViolations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_invariant_violations_total",
				Help: "Total ledger invariant violations, by check",
			},
			[]string{"check"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "splitledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "splitledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}
