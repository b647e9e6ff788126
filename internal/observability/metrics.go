// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scenario metrics
	ScenarioRuns       *prometheus.CounterVec
	ScenarioDuration   prometheus.Histogram
	ActionsApplied     *prometheus.CounterVec
	TicksRecorded      prometheus.Counter
	FormulaEvaluations *prometheus.CounterVec
	InterestCredited   prometheus.Counter
	AccountsSimulated  prometheus.Gauge

	// Persistence metrics
	SnapshotsStored prometheus.Counter
	RunsStored      prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default
// registry. Each namespace can be registered once per process.
func NewMetrics(namespace string) *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace)
}

// NewMetricsWithRegistry creates metrics registered with reg, e.g. a fresh
// prometheus.NewRegistry() in tests.
func NewMetricsWithRegistry(reg prometheus.Registerer, namespace string) *Metrics {
	return newMetrics(promauto.With(reg), namespace)
}

func newMetrics(factory promauto.Factory, namespace string) *Metrics {
	if namespace == "" {
		namespace = "cashflow_lab"
	}

	return &Metrics{
		ScenarioRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "runs_total",
			Help:      "Total number of scenario solves by status",
		}, []string{"status"}),
		ScenarioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "duration_seconds",
			Help:      "Scenario solve duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		}),
		ActionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "actions_applied_total",
			Help:      "Total number of actions applied by kind",
		}, []string{"kind"}),
		TicksRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "ticks_recorded_total",
			Help:      "Total number of result ticks recorded",
		}),
		FormulaEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "formula",
			Name:      "evaluations_total",
			Help:      "Total number of account formula evaluations by status",
		}, []string{"status"}),
		InterestCredited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "interest_credited_total",
			Help:      "Total interest credited across all accounts",
		}),
		AccountsSimulated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "accounts",
			Help:      "Number of accounts in the last solved scenario",
		}),

		SnapshotsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "snapshots_stored_total",
			Help:      "Total number of account snapshots persisted",
		}),
		RunsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "runs_stored_total",
			Help:      "Total number of runs persisted",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful scenario solve",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// active receives the package-level recorders used by the stores.
var active atomic.Pointer[Metrics]

func init() {
	active.Store(DefaultMetrics)
}

// Use routes the package-level recorders to m. nil restores DefaultMetrics.
func Use(m *Metrics) {
	if m == nil {
		m = DefaultMetrics
	}
	active.Store(m)
}

// RecordRun records a finished scenario solve. A nil receiver is a no-op.
func (m *Metrics) RecordRun(status string, seconds float64, finishedAt int64) {
	if m == nil {
		return
	}
	m.ScenarioRuns.WithLabelValues(status).Inc()
	m.ScenarioDuration.Observe(seconds)
	if status == "success" {
		m.LastSuccessfulRun.Set(float64(finishedAt))
	}
}

// RecordAction counts one applied action.
func (m *Metrics) RecordAction(kind string) {
	if m == nil {
		return
	}
	m.ActionsApplied.WithLabelValues(kind).Inc()
}

// RecordTick counts one recorded tick.
func (m *Metrics) RecordTick() {
	if m == nil {
		return
	}
	m.TicksRecorded.Inc()
}

// RecordFormula counts one formula evaluation.
func (m *Metrics) RecordFormula(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FormulaEvaluations.WithLabelValues(status).Inc()
}

// RecordInterest adds credited interest.
func (m *Metrics) RecordInterest(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.InterestCredited.Add(amount)
}

// SetAccounts updates the accounts gauge.
func (m *Metrics) SetAccounts(n int) {
	if m == nil {
		return
	}
	m.AccountsSimulated.Set(float64(n))
}

// RecordDBQuery records one query's latency and error.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordSnapshotsStored adds n persisted snapshots.
func (m *Metrics) RecordSnapshotsStored(n int) {
	if m == nil {
		return
	}
	m.SnapshotsStored.Add(float64(n))
}

// RecordRunStored counts one persisted run.
func (m *Metrics) RecordRunStored() {
	if m == nil {
		return
	}
	m.RunsStored.Inc()
}

// RecordDBQuery records database query metrics on the active instance.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	active.Load().RecordDBQuery(database, operation, seconds, err)
}
