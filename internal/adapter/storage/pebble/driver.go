// Package pebble stores the library database in an embedded Pebble LSM.
//
// Key schema:
//
//	<collection>/<key>        record JSON
//	\x00schema/version        decimal schema version
//	\x00schema/collections    comma separated created collections
//
// Read transactions run against a snapshot; write transactions use an indexed
// batch so reads observe the transaction's own writes, committed with Sync.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

var (
	keySchemaVersion     = []byte("\x00schema/version")
	keySchemaCollections = []byte("\x00schema/collections")
)

// Option configures a Driver.
type Option func(*Driver)

// WithFS makes the driver use fs instead of the OS filesystem.
// Tests pass vfs.NewMem().
func WithFS(fs vfs.FS) Option {
	return func(d *Driver) { d.fs = fs }
}

// Driver opens a Pebble store in a directory.
type Driver struct {
	dir    string
	fs     vfs.FS
	logger *slog.Logger
}

// NewDriver creates a driver for the store in dir.
func NewDriver(dir string, logger *slog.Logger, opts ...Option) *Driver {
	d := &Driver{dir: dir, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open opens the store and upgrades the schema when needed.
func (d *Driver) Open(ctx context.Context, schema ports.Schema) (ports.Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := &pebble.Options{}
	if d.fs != nil {
		opts.FS = d.fs
	}
	db, err := pebble.Open(d.dir, opts)
	if err != nil {
		return nil, domain.NewRepositoryError("open", "pebble", d.dir, errors.Join(domain.ErrStorageUnavailable, err))
	}

	collections, err := d.upgrade(db, schema)
	if err != nil {
		_ = db.Close()
		return nil, domain.NewRepositoryError("upgrade", "pebble", d.dir, err)
	}
	return &database{db: db, collections: collections}, nil
}

func (d *Driver) upgrade(db *pebble.DB, schema ports.Schema) (map[string]bool, error) {
	stored := 0
	if raw, err := get(db, keySchemaVersion); err == nil {
		stored, _ = strconv.Atoi(string(raw))
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	var created []string
	if raw, err := get(db, keySchemaCollections); err == nil && len(raw) > 0 {
		created = strings.Split(string(raw), ",")
	} else if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	known := make(map[string]bool, len(created))
	for _, c := range created {
		known[c] = true
	}
	if stored >= int(schema.Version) {
		return known, nil
	}

	for _, c := range schema.Collections {
		if !known[c] {
			known[c] = true
			created = append(created, c)
		}
	}
	b := db.NewBatch()
	defer b.Close()
	if err := b.Set(keySchemaVersion, []byte(strconv.FormatUint(uint64(schema.Version), 10)), nil); err != nil {
		return nil, err
	}
	if err := b.Set(keySchemaCollections, []byte(strings.Join(created, ",")), nil); err != nil {
		return nil, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return nil, err
	}
	d.logger.Info("schema upgraded",
		slog.String("dir", d.dir),
		slog.Int("from", stored),
		slog.Uint64("to", uint64(schema.Version)))
	return known, nil
}

type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

// get copies the value out before releasing it; Pebble reuses the buffer.
func get(r reader, key []byte) ([]byte, error) {
	value, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), value...), nil
}

type database struct {
	db          *pebble.DB
	collections map[string]bool
}

func (db *database) scope(names []string) (map[string]bool, error) {
	scope := make(map[string]bool, len(names))
	for _, n := range names {
		if !db.collections[n] {
			return nil, fmt.Errorf("%q: %w", n, domain.ErrUnknownCollection)
		}
		scope[n] = true
	}
	return scope, nil
}

// View runs fn against a consistent snapshot.
func (db *database) View(ctx context.Context, names []string, fn func(ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scope, err := db.scope(names)
	if err != nil {
		return err
	}

	snap := db.db.NewSnapshot()
	defer snap.Close()
	return fn(&tx{scope: scope, reader: snap})
}

// Update runs fn against an indexed batch and commits it when fn succeeds.
func (db *database) Update(ctx context.Context, names []string, fn func(ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scope, err := db.scope(names)
	if err != nil {
		return err
	}

	b := db.db.NewIndexedBatch()
	defer b.Close()
	if err := fn(&tx{scope: scope, reader: b, batch: b}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (db *database) Close() error {
	return db.db.Close()
}

type tx struct {
	scope  map[string]bool
	reader reader
	batch  *pebble.Batch // nil for read-only transactions
}

func (t *tx) Collection(name string) (ports.Collection, error) {
	if !t.scope[name] {
		return nil, fmt.Errorf("%q not in transaction: %w", name, domain.ErrUnknownCollection)
	}
	return &collection{tx: t, prefix: name + "/"}, nil
}

type collection struct {
	tx     *tx
	prefix string
}

func (c *collection) key(k string) []byte {
	return []byte(c.prefix + k)
}

func (c *collection) Get(key string) ([]byte, error) {
	return get(c.tx.reader, c.key(key))
}

func (c *collection) Put(key string, value []byte) error {
	if c.tx.batch == nil {
		return domain.ErrReadOnlyTransaction
	}
	return c.tx.batch.Set(c.key(key), value, nil)
}

func (c *collection) Delete(key string) error {
	if c.tx.batch == nil {
		return domain.ErrReadOnlyTransaction
	}
	return c.tx.batch.Delete(c.key(key), nil)
}

var _ ports.Driver = (*Driver)(nil)
