package registry

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/bytevault/bytevault/pkg/vault"
)

// ============================================================================
// Database Key Namespace Design
// ============================================================================
//
// BadgerDB is a key-value store, so prefixed keys organize the record
// types into namespaces:
//
// Data Type     Prefix   Key Format    Value Type
// =================================================
// File Record   "n:"     n:<name>      FileRecord (JSON)
//
// File data does not live in the database: each record carries the UUID
// of its flat data file under the store's data directory. The UUID is
// stable across renames, so a rename only moves the name key.

const prefixName = "n:"

// keyName generates the key for a file record: "n:<name>"
func keyName(name string) []byte {
	return []byte(prefixName + name)
}

// FileRecord is the durable metadata for one named file.
type FileRecord struct {
	// ID identifies the data file on disk (<dataDir>/<ID>.dat).
	// It never changes, even across renames.
	ID uuid.UUID `json:"id"`

	// Name is the user-visible file name.
	Name string `json:"name"`

	// Length is the byte length at the last handle close. While a
	// handle is open the authoritative length lives in its backend.
	Length int64 `json:"length"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// MaxNameLength is the longest accepted file name, in bytes.
const MaxNameLength = 100

// namePattern matches valid file names: lowercase alphanumerics plus
// dot, underscore and dash.
var namePattern = regexp.MustCompile(`^[a-z0-9._-]+$`)

// ValidateName checks that name is acceptable for the registry.
func ValidateName(name string) error {
	if name == "" {
		return vault.NewInvalidArgumentError("file name must not be empty")
	}
	if len(name) > MaxNameLength {
		return vault.NewInvalidArgumentError(
			fmt.Sprintf("file name exceeds %d bytes", MaxNameLength))
	}
	if !namePattern.MatchString(name) {
		return vault.NewInvalidArgumentError(
			fmt.Sprintf("invalid file name %q: only [a-z0-9._-] allowed", name))
	}
	return nil
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	Files       int    `json:"files"`
	OpenHandles int    `json:"open_handles"`
	Capacity    uint64 `json:"capacity_bytes"`
	Granted     uint64 `json:"granted_bytes"`
	Remaining   uint64 `json:"remaining_bytes"`
}
