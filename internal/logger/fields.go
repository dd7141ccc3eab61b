package logger

// Standard field keys for structured logging. Use these consistently so
// store activity can be aggregated and queried by key.
const (
	// Store & handles
	KeyStore  = "store"  // store root path
	KeyHandle = "handle" // file name the handle was opened with
	KeyOp     = "op"     // operation kind: read, write, flush, ...
	KeyState  = "state"  // handle lifecycle state

	// I/O
	KeyOffset = "offset" // byte offset for read/write
	KeyCount  = "count"  // bytes requested
	KeyBytes  = "bytes"  // bytes actually moved
	KeyLength = "length" // file length

	// Capacity
	KeyCapacity = "capacity" // configured store capacity
	KeyGranted  = "granted"  // bytes currently granted

	// HTTP
	KeyRequestID = "request_id"
	KeyMethod    = "method"
	KeyPath      = "path"
	KeyStatus    = "status"

	// Outcomes
	KeyError      = "error"
	KeyDurationMs = "duration_ms"
)
