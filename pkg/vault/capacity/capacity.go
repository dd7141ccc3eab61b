// Package capacity implements the fixed-capacity ledger for a store.
//
// Every backend charges the ledger before growing a file and returns
// bytes when a file shrinks or is deleted. The ledger is bookkeeping
// only; it does not touch the filesystem.
package capacity

import (
	"sync"

	"github.com/bytevault/bytevault/pkg/vault"
)

// Ledger tracks granted bytes against a fixed capacity.
//
// Safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	capacity uint64 // 0 = unlimited
	granted  uint64
}

// NewLedger creates a ledger with the given capacity in bytes.
// A capacity of 0 means unlimited.
func NewLedger(capacity uint64) *Ledger {
	return &Ledger{capacity: capacity}
}

// Grant reserves n bytes. Returns a NoCapacity error if the reservation
// would exceed the configured capacity; on failure nothing is reserved.
func (l *Ledger) Grant(n uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capacity > 0 && l.granted+n > l.capacity {
		return vault.NewNoCapacityError(n, l.capacity-l.granted)
	}
	l.granted += n
	return nil
}

// Release returns n bytes to the ledger, clamped at zero.
func (l *Ledger) Release(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > l.granted {
		n = l.granted
	}
	l.granted -= n
}

// Granted returns the bytes currently reserved.
func (l *Ledger) Granted() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.granted
}

// Capacity returns the configured capacity (0 = unlimited).
func (l *Ledger) Capacity() uint64 {
	return l.capacity
}

// Remaining returns the bytes still available, or ^uint64(0) when the
// ledger is unlimited.
func (l *Ledger) Remaining() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capacity == 0 {
		return ^uint64(0)
	}
	return l.capacity - l.granted
}
