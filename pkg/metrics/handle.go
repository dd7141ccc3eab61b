package metrics

import (
	"github.com/bytevault/bytevault/pkg/vault"
	"github.com/bytevault/bytevault/pkg/vault/capacity"
)

// NewHandleMetrics creates a Prometheus-backed vault.HandleMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called);
// handles treat a nil collector as a no-op.
func NewHandleMetrics() vault.HandleMetrics {
	if !IsEnabled() || newPrometheusHandleMetrics == nil {
		return nil
	}
	return newPrometheusHandleMetrics()
}

// newPrometheusHandleMetrics is provided by pkg/metrics/prometheus at
// package init. The indirection keeps this package free of a direct
// dependency on the implementation.
var newPrometheusHandleMetrics func() vault.HandleMetrics

// RegisterHandleMetricsConstructor registers the Prometheus handle
// metrics constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterHandleMetricsConstructor(constructor func() vault.HandleMetrics) {
	newPrometheusHandleMetrics = constructor
}

// RegisterCapacityMetrics exposes the ledger's capacity, granted and
// remaining bytes as gauges. No-op when metrics are disabled.
func RegisterCapacityMetrics(ledger *capacity.Ledger) {
	if !IsEnabled() || registerCapacityMetrics == nil {
		return
	}
	registerCapacityMetrics(ledger)
}

// registerCapacityMetrics is provided by pkg/metrics/prometheus.
var registerCapacityMetrics func(*capacity.Ledger)

// RegisterCapacityMetricsFunc registers the capacity gauge installer.
func RegisterCapacityMetricsFunc(fn func(*capacity.Ledger)) {
	registerCapacityMetrics = fn
}
