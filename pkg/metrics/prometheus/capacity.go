package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bytevault/bytevault/pkg/metrics"
	"github.com/bytevault/bytevault/pkg/vault/capacity"
)

// registerCapacityMetrics installs gauges reading from the ledger.
func registerCapacityMetrics(ledger *capacity.Ledger) {
	reg := metrics.GetRegistry()
	if reg == nil {
		return
	}

	promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bytevault_store_capacity_bytes",
			Help: "Configured store capacity (0 = unlimited)",
		},
		func() float64 { return float64(ledger.Capacity()) },
	)
	promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bytevault_store_granted_bytes",
			Help: "Bytes currently granted to files",
		},
		func() float64 { return float64(ledger.Granted()) },
	)
}
