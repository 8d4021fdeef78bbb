//go:build js && wasm

// Package indexeddb stores the library database in the browser's IndexedDB.
// Each collection is an object store with out-of-line string keys holding the
// record JSON as a string value.
package indexeddb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/hack-pad/go-indexeddb/idb"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// Driver opens IndexedDB databases through the global factory.
type Driver struct {
	logger *slog.Logger
}

// NewDriver creates a driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{logger: logger}
}

// Open opens the database, creating missing object stores in the upgrade
// callback when schema.Version is newer than the browser's copy.
func (d *Driver) Open(ctx context.Context, schema ports.Schema) (ports.Database, error) {
	req, err := idb.Global().Open(ctx, schema.Name, schema.Version, func(db *idb.Database, oldVersion, newVersion uint) error {
		existing, err := db.ObjectStoreNames()
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, name := range existing {
			have[name] = true
		}
		for _, name := range schema.Collections {
			if have[name] {
				continue
			}
			if _, err := db.CreateObjectStore(name, idb.ObjectStoreOptions{}); err != nil {
				return fmt.Errorf("create %s: %w", name, err)
			}
		}
		d.logger.Info("schema upgraded",
			slog.String("db", schema.Name),
			slog.Uint64("from", uint64(oldVersion)),
			slog.Uint64("to", uint64(newVersion)))
		return nil
	})
	if err != nil {
		return nil, domain.NewRepositoryError("open", "indexeddb", schema.Name, errors.Join(domain.ErrStorageUnavailable, err))
	}
	db, err := req.Await(ctx)
	if err != nil {
		return nil, domain.NewRepositoryError("open", "indexeddb", schema.Name, errors.Join(domain.ErrStorageUnavailable, err))
	}

	names, err := db.ObjectStoreNames()
	if err != nil {
		_ = db.Close()
		return nil, domain.NewRepositoryError("open", "indexeddb", schema.Name, err)
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	return &database{db: db, collections: known}, nil
}

type database struct {
	db          *idb.Database
	collections map[string]bool
}

func (db *database) begin(ctx context.Context, mode idb.TransactionMode, names []string) (*tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no collections: %w", domain.ErrUnknownCollection)
	}
	for _, n := range names {
		if !db.collections[n] {
			return nil, fmt.Errorf("%q: %w", n, domain.ErrUnknownCollection)
		}
	}
	txn, err := db.db.Transaction(mode, names[0], names[1:]...)
	if err != nil {
		return nil, err
	}
	scope := make(map[string]bool, len(names))
	for _, n := range names {
		scope[n] = true
	}
	return &tx{ctx: ctx, txn: txn, scope: scope, writable: mode == idb.TransactionReadWrite}, nil
}

// View runs fn in a readonly IndexedDB transaction.
func (db *database) View(ctx context.Context, names []string, fn func(ports.Tx) error) error {
	t, err := db.begin(ctx, idb.TransactionReadOnly, names)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	return t.txn.Await(ctx)
}

// Update runs fn in a readwrite transaction; an error from fn aborts it.
func (db *database) Update(ctx context.Context, names []string, fn func(ports.Tx) error) error {
	t, err := db.begin(ctx, idb.TransactionReadWrite, names)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		_ = t.txn.Abort()
		return err
	}
	return t.txn.Await(ctx)
}

func (db *database) Close() error {
	return db.db.Close()
}

type tx struct {
	ctx      context.Context
	txn      *idb.Transaction
	scope    map[string]bool
	writable bool
}

func (t *tx) Collection(name string) (ports.Collection, error) {
	if !t.scope[name] {
		return nil, fmt.Errorf("%q not in transaction: %w", name, domain.ErrUnknownCollection)
	}
	store, err := t.txn.ObjectStore(name)
	if err != nil {
		return nil, err
	}
	return &collection{tx: t, store: store}, nil
}

type collection struct {
	tx    *tx
	store *idb.ObjectStore
}

func (c *collection) Get(key string) ([]byte, error) {
	req, err := c.store.Get(js.ValueOf(key))
	if err != nil {
		return nil, err
	}
	value, err := req.Await(c.tx.ctx)
	if err != nil {
		return nil, err
	}
	if value.Type() != js.TypeString {
		return nil, domain.ErrRecordNotFound
	}
	return []byte(value.String()), nil
}

func (c *collection) Put(key string, value []byte) error {
	if !c.tx.writable {
		return domain.ErrReadOnlyTransaction
	}
	req, err := c.store.PutKey(js.ValueOf(key), js.ValueOf(string(value)))
	if err != nil {
		return err
	}
	_, err = req.Await(c.tx.ctx)
	return err
}

func (c *collection) Delete(key string) error {
	if !c.tx.writable {
		return domain.ErrReadOnlyTransaction
	}
	req, err := c.store.Delete(js.ValueOf(key))
	if err != nil {
		return err
	}
	return req.Await(c.tx.ctx)
}

var _ ports.Driver = (*Driver)(nil)
