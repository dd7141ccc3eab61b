// Package registry implements the naming layer of a bytevault store.
//
// The registry maps user-visible file names to file records (data file
// UUID, length, timestamps) persisted in BadgerDB, and hands out
// vault.Handle instances bound to file-backed storage. It tracks open
// handles so a name cannot be opened twice concurrently and so deletes
// and renames never race live I/O.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/bytevault/bytevault/internal/logger"
	"github.com/bytevault/bytevault/pkg/vault"
	backendfile "github.com/bytevault/bytevault/pkg/vault/backend/file"
	"github.com/bytevault/bytevault/pkg/vault/capacity"
)

// gcInterval is how often the badger value log garbage collector runs.
const gcInterval = 5 * time.Minute

// Config holds registry configuration.
type Config struct {
	// Path is the store root. The registry creates meta/ (BadgerDB)
	// and data/ (flat files) underneath it.
	Path string

	// Capacity is the fixed store capacity in bytes (0 = unlimited).
	Capacity uint64

	// Metrics receives handle operation outcomes. May be nil.
	Metrics vault.HandleMetrics
}

// Registry is the naming layer over one store directory.
//
// All methods are safe for concurrent use.
type Registry struct {
	dataDir string
	db      *badger.DB
	ledger  *capacity.Ledger
	metrics vault.HandleMetrics

	mu   sync.Mutex
	open map[string]*vault.Handle

	gcStop chan struct{}
	gcDone chan struct{}
}

// New opens (or initializes) the store at cfg.Path.
//
// Existing file lengths are charged to the capacity ledger; New fails if
// they already exceed the configured capacity, which happens when the
// capacity was lowered below the store's current footprint.
func New(cfg Config) (*Registry, error) {
	metaDir := filepath.Join(cfg.Path, "meta")
	dataDir := filepath.Join(cfg.Path, "data")
	for _, dir := range []string{metaDir, dataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	opts := badger.DefaultOptions(metaDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open metadata database: %w", err)
	}

	r := &Registry{
		dataDir: dataDir,
		db:      db,
		ledger:  capacity.NewLedger(cfg.Capacity),
		metrics: cfg.Metrics,
		open:    make(map[string]*vault.Handle),
		gcStop:  make(chan struct{}),
		gcDone:  make(chan struct{}),
	}

	if err := r.chargeExisting(); err != nil {
		_ = db.Close()
		return nil, err
	}

	go r.runValueLogGC()

	logger.Info("store opened",
		"path", cfg.Path,
		"capacity", cfg.Capacity,
		"granted", r.ledger.Granted(),
	)
	return r, nil
}

// Ledger exposes the capacity ledger for stats and metrics collection.
func (r *Registry) Ledger() *capacity.Ledger {
	return r.ledger
}

// chargeExisting replays persisted file lengths into the ledger.
func (r *Registry) chargeExisting() error {
	return r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefixName)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec FileRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode file record: %w", err)
				}
				if rec.Length <= 0 {
					return nil
				}
				if err := r.ledger.Grant(uint64(rec.Length)); err != nil {
					return fmt.Errorf("existing data exceeds configured capacity: %w", err)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Open returns an open handle for name, creating the file on first open.
//
// A name held by an open handle cannot be opened again until that handle
// closes; such attempts fail with a Busy error.
func (r *Registry) Open(ctx context.Context, name string) (*vault.Handle, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.open[name]; held {
		return nil, vault.NewBusyError(name)
	}

	var rec FileRecord
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyName(name))
		if err == nil {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
		}
		if err != badger.ErrKeyNotFound {
			return fmt.Errorf("get file record: %w", err)
		}

		now := time.Now().UTC()
		rec = FileRecord{
			ID:         uuid.New(),
			Name:       name,
			CreatedAt:  now,
			ModifiedAt: now,
		}
		return r.putRecord(txn, &rec)
	})
	if err != nil {
		return nil, err
	}

	be, err := backendfile.Open(name, r.dataPath(rec.ID), r.ledger)
	if err != nil {
		return nil, err
	}

	h := vault.NewHandle(name, be, r.metrics)
	h.SetOnClosed(func() { r.handleClosed(name, be) })
	r.open[name] = h

	logger.Debug("handle opened", "handle", name, "id", rec.ID.String())
	return h, nil
}

// handleClosed persists the final length and releases the open-name slot.
// Runs on the closing goroutine, after the backend has been released.
func (r *Registry) handleClosed(name string, be *backendfile.Backend) {
	length := be.CurrentLength()

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyName(name))
		if err != nil {
			return err
		}
		var rec FileRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		rec.Length = length
		rec.ModifiedAt = time.Now().UTC()
		return r.putRecord(txn, &rec)
	})
	if err != nil {
		logger.Warn("persist length on close failed", "handle", name, "error", err)
	}

	r.mu.Lock()
	delete(r.open, name)
	r.mu.Unlock()

	logger.Debug("handle closed", "handle", name, "length", length)
}

// Delete removes the named file and returns its bytes to the ledger.
// Fails with a Busy error while an open handle holds the name.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.open[name]; held {
		return vault.NewBusyError(name)
	}

	var rec FileRecord
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyName(name))
		if err == badger.ErrKeyNotFound {
			return vault.NewNotFoundError(name)
		}
		if err != nil {
			return fmt.Errorf("get file record: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		return txn.Delete(keyName(name))
	})
	if err != nil {
		return err
	}

	if err := os.Remove(r.dataPath(rec.ID)); err != nil && !os.IsNotExist(err) {
		logger.Warn("remove data file failed", "handle", name, "error", err)
	}
	if rec.Length > 0 {
		r.ledger.Release(uint64(rec.Length))
	}

	logger.Debug("file deleted", "handle", name, "length", rec.Length)
	return nil
}

// Rename moves oldName to newName. The data file keeps its UUID, so only
// the name key moves. Fails with a Busy error if either name is held by
// an open handle, and with AlreadyExists if newName is taken.
func (r *Registry) Rename(ctx context.Context, oldName, newName string) error {
	if err := ValidateName(oldName); err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.open[oldName]; held {
		return vault.NewBusyError(oldName)
	}
	if _, held := r.open[newName]; held {
		return vault.NewBusyError(newName)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keyName(newName)); err == nil {
			return vault.NewAlreadyExistsError(newName)
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("get file record: %w", err)
		}

		item, err := txn.Get(keyName(oldName))
		if err == badger.ErrKeyNotFound {
			return vault.NewNotFoundError(oldName)
		}
		if err != nil {
			return fmt.Errorf("get file record: %w", err)
		}

		var rec FileRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}

		rec.Name = newName
		rec.ModifiedAt = time.Now().UTC()
		if err := r.putRecord(txn, &rec); err != nil {
			return err
		}
		return txn.Delete(keyName(oldName))
	})
}

// List returns all file records, sorted by name.
func (r *Registry) List(ctx context.Context) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []FileRecord
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefixName)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec FileRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode file record: %w", err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// Stat returns the record for one name.
func (r *Registry) Stat(ctx context.Context, name string) (*FileRecord, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec FileRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyName(name))
		if err == badger.ErrKeyNotFound {
			return vault.NewNotFoundError(name)
		}
		if err != nil {
			return fmt.Errorf("get file record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Stats returns a snapshot of store usage.
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	records, err := r.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	r.mu.Lock()
	openCount := len(r.open)
	r.mu.Unlock()

	return Stats{
		Files:       len(records),
		OpenHandles: openCount,
		Capacity:    r.ledger.Capacity(),
		Granted:     r.ledger.Granted(),
		Remaining:   r.ledger.Remaining(),
	}, nil
}

// Close closes every open handle, then the metadata database.
func (r *Registry) Close() error {
	close(r.gcStop)
	<-r.gcDone

	r.mu.Lock()
	handles := make([]*vault.Handle, 0, len(r.open))
	for _, h := range r.open {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		_ = h.Close()
	}

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close metadata database: %w", err)
	}

	logger.Info("store closed", "handles_closed", len(handles))
	return nil
}

// putRecord serializes and stores a file record in the transaction.
func (r *Registry) putRecord(txn *badger.Txn, rec *FileRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode file record: %w", err)
	}
	return txn.Set(keyName(rec.Name), val)
}

// dataPath returns the flat-file path for a record ID.
func (r *Registry) dataPath(id uuid.UUID) string {
	return filepath.Join(r.dataDir, id.String()+".dat")
}

// runValueLogGC periodically compacts the badger value log.
func (r *Registry) runValueLogGC() {
	defer close(r.gcDone)

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.gcStop:
			return
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to collect.
			if err := r.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				logger.Warn("value log GC failed", "error", err)
			}
		}
	}
}
