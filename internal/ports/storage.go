package ports

import (
	"context"
)

// Collection names of the library database.
const (
	CollectionSongs     = "songs"     // keyed by song id
	CollectionProfiles  = "profiles"  // keyed by email
	CollectionMetadata  = "metadata"  // keyed by metadata key
	CollectionPlaylists = "playlists" // keyed by playlist id
)

// Collections returns every collection of the library schema.
func Collections() []string {
	return []string{CollectionSongs, CollectionProfiles, CollectionMetadata, CollectionPlaylists}
}

// Schema describes the database a driver must open or upgrade.
type Schema struct {
	Name        string
	Version     uint
	Collections []string
}

// Has reports whether name is one of the schema's collections.
func (s Schema) Has(name string) bool {
	for _, c := range s.Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Collection is a key/value view of one collection inside a transaction.
type Collection interface {
	// Get returns the stored value or domain.ErrRecordNotFound.
	Get(key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Tx hands out collections within the scope declared when the transaction began.
type Tx interface {
	// Collection returns the named collection or domain.ErrUnknownCollection
	// when it is outside the transaction's scope.
	Collection(name string) (Collection, error)
}

// Database is an opened library database.
//
// View and Update run fn inside a single transaction spanning the listed
// collections. Update commits only when fn returns nil; writes made before an
// error are discarded.
//
// Thread-safety: Implementations must be thread-safe.
type Database interface {
	View(ctx context.Context, collections []string, fn func(tx Tx) error) error
	Update(ctx context.Context, collections []string, fn func(tx Tx) error) error
	Close() error
}

// Driver opens a concrete storage backend, creating or upgrading the schema's
// collections during the same call when schema.Version is newer than what is
// stored.
type Driver interface {
	Open(ctx context.Context, schema Schema) (Database, error)
}

// DatabaseOpener yields the shared database handle, opening it on first use.
type DatabaseOpener interface {
	Open(ctx context.Context) (Database, error)
}
