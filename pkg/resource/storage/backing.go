// Package storage defines the per-type backing contract that the resource
// manager dispatches onto, and is implemented by both the persistent
// (pkg/resource/storage/persistent) and volatile (pkg/resource/storage/volatile)
// storage classes.
package storage

import "github.com/pkg/errors"

// ErrNotFound is returned by Get and Delete when the raw id is absent from a
// backing's table.
var ErrNotFound = errors.New("resource not found")

// Backing stores raw, already-encoded values for a single entity type,
// addressed by a 16-byte identifier. Implementations are not required to be
// safe for concurrent use by more than one writer at a time; the resource
// manager serializes writers itself.
type Backing interface {
	// Get returns the encoded value for id, or ErrNotFound.
	Get(id [16]byte) ([]byte, error)

	// Set stores (overwriting) the encoded value for id.
	Set(id [16]byte, data []byte) error

	// Delete removes id, returning the prior encoded value or ErrNotFound.
	Delete(id [16]byte) ([]byte, error)

	// List returns every stored id/value pair for this type.
	List() (map[[16]byte][]byte, error)

	// Close releases any resources the backing holds (file handles, etc).
	Close() error
}

// Opener creates the Backing for a given table name the first time it is
// needed, so that persistent and volatile stores share the same lazy
// per-type initialization path in the resource manager.
type Opener func(tableName string) (Backing, error)
