// Package metrics provides Prometheus metrics for the glucose dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "glucose"

var (
	// TicksTotal counts simulation ticks by outcome.
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		},
		[]string{"status"},
	)

	// TickDuration measures end-to-end tick latency.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of simulation ticks in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	// CurrentValue tracks the latest sample value.
	CurrentValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_value_mgdl",
			Help:      "Latest glucose sample in mg/dL",
		},
	)

	// RetainedSamples tracks the number of samples held by the series store.
	RetainedSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retained_samples",
			Help:      "Number of samples currently retained",
		},
	)

	// DangerEventsTotal counts danger classifications by level.
	DangerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "danger_events_total",
			Help:      "Total number of out-of-range classifications",
		},
		[]string{"level"},
	)

	// LedgerWritesTotal counts ledger persistence attempts.
	LedgerWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_writes_total",
			Help:      "Total number of ledger persistence writes",
		},
		[]string{"log", "status"},
	)

	// ControllerRunning reports the controller state (1 = running, 0 = paused).
	ControllerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controller_running",
			Help:      "Simulation controller state (1 = running, 0 = paused)",
		},
	)
)

// RecordTick records a completed tick.
func RecordTick(status string, duration float64) {
	TicksTotal.WithLabelValues(status).Inc()
	TickDuration.Observe(duration)
}

// RecordSample updates the sample gauges.
func RecordSample(value float64, retained int) {
	CurrentValue.Set(value)
	RetainedSamples.Set(float64(retained))
}

// RecordDanger records an out-of-range classification.
func RecordDanger(level string) {
	DangerEventsTotal.WithLabelValues(level).Inc()
}

// RecordLedgerWrite records a ledger persistence attempt.
func RecordLedgerWrite(log, status string) {
	LedgerWritesTotal.WithLabelValues(log, status).Inc()
}

// SetRunning sets the controller state gauge.
func SetRunning(running bool) {
	if running {
		ControllerRunning.Set(1)
		return
	}
	ControllerRunning.Set(0)
}
