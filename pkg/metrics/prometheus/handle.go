// Package prometheus provides the Prometheus-backed metric collectors.
//
// Importing this package (for side effects) wires the constructors into
// pkg/metrics; nothing is registered until metrics.InitRegistry runs.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bytevault/bytevault/pkg/metrics"
	"github.com/bytevault/bytevault/pkg/vault"
)

func init() {
	metrics.RegisterHandleMetricsConstructor(newHandleMetrics)
	metrics.RegisterCapacityMetricsFunc(registerCapacityMetrics)
}

// handleMetrics is the Prometheus implementation of vault.HandleMetrics.
type handleMetrics struct {
	ops        *prometheus.CounterVec
	opBytes    *prometheus.CounterVec
	opDuration *prometheus.HistogramVec
	closes     prometheus.Counter
	closeTime  prometheus.Histogram
}

// newHandleMetrics builds the collectors against the enabled registry.
func newHandleMetrics() vault.HandleMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return &handleMetrics{
		ops: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bytevault_handle_ops_total",
				Help: "Handle operations by kind and outcome",
			},
			[]string{"op", "outcome"}, // outcome: "ok", "rejected", "error"
		),
		opBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bytevault_handle_op_bytes_total",
				Help: "Bytes moved by handle operations, by kind",
			},
			[]string{"op"},
		),
		opDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bytevault_handle_op_duration_seconds",
				Help:    "Handle operation latency by kind",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		closes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bytevault_handle_closes_total",
				Help: "Completed handle teardowns (one per handle)",
			},
		),
		closeTime: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bytevault_handle_close_duration_seconds",
				Help:    "Time from close to backend release, including waits for pending operations",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveOp records one data operation outcome.
func (m *handleMetrics) ObserveOp(op string, bytes int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := "ok"
	switch {
	case vault.IsInvalidState(err):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}

	m.ops.WithLabelValues(op, outcome).Inc()
	if bytes > 0 {
		m.opBytes.WithLabelValues(op).Add(float64(bytes))
	}
	if outcome != "rejected" {
		m.opDuration.WithLabelValues(op).Observe(duration.Seconds())
	}
}

// ObserveClose records one completed teardown.
func (m *handleMetrics) ObserveClose(duration time.Duration) {
	if m == nil {
		return
	}
	m.closes.Inc()
	m.closeTime.Observe(duration.Seconds())
}
