package vault

import "time"

// HandleMetrics receives operation outcomes from handles.
//
// A nil HandleMetrics disables collection with zero overhead; handles
// check for nil before every call. The Prometheus implementation lives
// in pkg/metrics/prometheus.
type HandleMetrics interface {
	// ObserveOp records one data operation: its kind label (OpRead,
	// OpWrite, ...), the bytes moved (0 for non-transfer operations),
	// the wall time spent, and the error outcome (nil on success).
	// Rejected operations are reported with a zero duration.
	ObserveOp(op string, bytes int, duration time.Duration, err error)

	// ObserveClose records a completed close, with the time spent
	// waiting for pending operations and releasing the backend.
	ObserveClose(duration time.Duration)
}
