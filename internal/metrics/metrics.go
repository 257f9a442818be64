// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TransactionsIngested counts transactions pulled from the provider.
var TransactionsIngested = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "centsplit",
	Subsystem: "ingest",
	Name:      "transactions_total",
	Help:      "Total transactions ingested from the provider.",
})

// IngestErrors counts failed provider ingest runs.
var IngestErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "centsplit",
	Subsystem: "ingest",
	Name:      "errors_total",
	Help:      "Total provider ingest runs that ended in an error.",
})

// TransactionsCategorized counts categorize outcomes by result category.
var TransactionsCategorized = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "centsplit",
	Subsystem: "categorize",
	Name:      "transactions_total",
	Help:      "Total transactions categorized, labeled by resolved category.",
}, []string{"category"})

// CategorizeErrors counts transactions that failed categorization.
var CategorizeErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "centsplit",
	Subsystem: "categorize",
	Name:      "errors_total",
	Help:      "Total transactions that failed categorization.",
})

// OverridesApplied counts manual category override writes.
var OverridesApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "centsplit",
	Subsystem: "rules",
	Name:      "overrides_total",
	Help:      "Total manual category overrides applied.",
})

// ReportsExported counts monthly report exports by outcome.
var ReportsExported = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "centsplit",
	Subsystem: "report",
	Name:      "exports_total",
	Help:      "Total report exports, labeled by outcome.",
}, []string{"outcome"})
