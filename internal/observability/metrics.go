// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Fund flow metrics
	LamportsStaked   prometheus.Counter
	LamportsPaid     prometheus.Counter
	LamportsToppedUp prometheus.Counter
	PayoutsTotal     *prometheus.CounterVec
	VaultBalance     prometheus.Gauge

	// Event log metrics
	EventsRecorded   prometheus.Counter
	EventWriteErrors prometheus.Counter

	// Clock metrics
	ClockReadErrors prometheus.Counter
	LastClockValue  prometheus.Gauge

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_prediction"
	}

	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations by name and status",
		}, []string{"operation", "status"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds, including the storage transaction",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		OperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_errors_total",
			Help:      "Total number of rejected engine operations by error kind",
		}, []string{"operation", "kind"}),

		LamportsStaked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "lamports_staked_total",
			Help:      "Total lamports transferred from participants into the vault",
		}),
		LamportsPaid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "lamports_paid_total",
			Help:      "Total lamports paid out of the vault to winners",
		}),
		LamportsToppedUp: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "lamports_topped_up_total",
			Help:      "Total lamports added to the vault by its owner",
		}),
		PayoutsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "resolutions_total",
			Help:      "Total number of resolved predictions by result",
		}, []string{"result"}),
		VaultBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "balance_lamports",
			Help:      "Vault balance observed after the last committed fund movement",
		}),

		EventsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "recorded_total",
			Help:      "Total number of settlement events written to the event log",
		}),
		EventWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "write_errors_total",
			Help:      "Total number of failed event log writes",
		}),

		ClockReadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "read_errors_total",
			Help:      "Total number of failed clock reads",
		}),
		LastClockValue: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "last_value_seconds",
			Help:      "Last unix timestamp returned by the clock",
		}),

		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordOperation records an engine operation outcome and latency.
// kind labels the error and is ignored on success.
func RecordOperation(operation string, seconds float64, kind string, err error) {
	DefaultMetrics.OperationDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.OperationsTotal.WithLabelValues(operation, "error").Inc()
		DefaultMetrics.OperationErrors.WithLabelValues(operation, kind).Inc()
		return
	}
	DefaultMetrics.OperationsTotal.WithLabelValues(operation, "ok").Inc()
}

// RecordStake adds a participant stake.
func RecordStake(lamports uint64) {
	DefaultMetrics.LamportsStaked.Add(float64(lamports))
}

// RecordTopUp adds an owner top-up.
func RecordTopUp(lamports uint64) {
	DefaultMetrics.LamportsToppedUp.Add(float64(lamports))
}

// RecordResolution records a resolved prediction and its payout.
func RecordResolution(result string, lamports uint64) {
	DefaultMetrics.PayoutsTotal.WithLabelValues(result).Inc()
	DefaultMetrics.LamportsPaid.Add(float64(lamports))
}

// UpdateVaultBalance sets the vault balance gauge.
func UpdateVaultBalance(lamports uint64) {
	DefaultMetrics.VaultBalance.Set(float64(lamports))
}

// RecordEvents records an event log write.
func RecordEvents(n int, err error) {
	if err != nil {
		DefaultMetrics.EventWriteErrors.Inc()
		return
	}
	DefaultMetrics.EventsRecorded.Add(float64(n))
}

// RecordClockRead records a clock read.
func RecordClockRead(now int64, err error) {
	if err != nil {
		DefaultMetrics.ClockReadErrors.Inc()
		return
	}
	DefaultMetrics.LastClockValue.Set(float64(now))
}
