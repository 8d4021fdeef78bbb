// Package preferences stores the library database in fyne.Preferences.
//
// Every record is one string preference:
//
//	<db>.<collection>.<key>   record JSON
//	<db>._schema.version      int, stored schema version
//	<db>._schema.collections  string list, created collections
//
// Preferences have no transactions, so writes are buffered per transaction and
// applied under the driver lock once the transaction function succeeds.
package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// Driver opens databases backed by a fyne.Preferences store.
//
// Thread-safe: All databases opened from one driver share its sync.RWMutex.
type Driver struct {
	prefs  fyne.Preferences
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewDriver creates a driver.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewDriver(prefs fyne.Preferences, logger *slog.Logger) *Driver {
	return &Driver{
		prefs:  prefs,
		logger: logger,
	}
}

func versionKey(db string) string     { return db + "._schema.version" }
func collectionsKey(db string) string { return db + "._schema.collections" }

// Open creates any collection of schema that is missing when schema.Version is
// newer than the stored version.
func (d *Driver) Open(ctx context.Context, schema ports.Schema) (ports.Database, error) {
	if d.prefs == nil {
		return nil, fmt.Errorf("preferences: %w", domain.ErrStorageUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := d.prefs.Int(versionKey(schema.Name))
	created := d.prefs.StringList(collectionsKey(schema.Name))
	if stored < int(schema.Version) {
		have := make(map[string]bool, len(created))
		for _, c := range created {
			have[c] = true
		}
		for _, c := range schema.Collections {
			if !have[c] {
				created = append(created, c)
				have[c] = true
			}
		}
		d.prefs.SetStringList(collectionsKey(schema.Name), created)
		d.prefs.SetInt(versionKey(schema.Name), int(schema.Version))
		d.logger.Info("schema upgraded",
			slog.String("db", schema.Name),
			slog.Int("from", stored),
			slog.Uint64("to", uint64(schema.Version)))
	}

	known := make(map[string]bool, len(created))
	for _, c := range created {
		known[c] = true
	}
	return &database{driver: d, name: schema.Name, collections: known}, nil
}

type database struct {
	driver      *Driver
	name        string
	collections map[string]bool
}

func (db *database) begin(names []string, writable bool) (*tx, error) {
	scope := make(map[string]bool, len(names))
	for _, n := range names {
		if !db.collections[n] {
			return nil, fmt.Errorf("%q: %w", n, domain.ErrUnknownCollection)
		}
		scope[n] = true
	}
	return &tx{db: db, scope: scope, writable: writable, writes: make(map[string]*string)}, nil
}

// View runs fn with read access to the named collections.
func (db *database) View(ctx context.Context, names []string, fn func(ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := db.begin(names, false)
	if err != nil {
		return err
	}

	db.driver.mu.RLock()
	defer db.driver.mu.RUnlock()
	return fn(t)
}

// Update runs fn and applies its buffered writes if it returns nil.
func (db *database) Update(ctx context.Context, names []string, fn func(ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := db.begin(names, true)
	if err != nil {
		return err
	}

	db.driver.mu.Lock()
	defer db.driver.mu.Unlock()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	prefs := db.driver.prefs
	for key, value := range t.writes {
		if value == nil {
			prefs.RemoveValue(key)
		} else {
			prefs.SetString(key, *value)
		}
	}
	return nil
}

// Close is a no-op; the preferences store belongs to the fyne app.
func (db *database) Close() error {
	return nil
}

type tx struct {
	db       *database
	scope    map[string]bool
	writable bool
	// writes maps full preference keys to pending values; nil means delete
	writes map[string]*string
}

func (t *tx) Collection(name string) (ports.Collection, error) {
	if !t.scope[name] {
		return nil, fmt.Errorf("%q not in transaction: %w", name, domain.ErrUnknownCollection)
	}
	return &collection{tx: t, prefix: t.db.name + "." + name + "."}, nil
}

type collection struct {
	tx     *tx
	prefix string
}

// Get reads through pending writes. An empty preference counts as missing,
// since fyne returns "" for unset keys.
func (c *collection) Get(key string) ([]byte, error) {
	full := c.prefix + key
	if pending, ok := c.tx.writes[full]; ok {
		if pending == nil {
			return nil, domain.ErrRecordNotFound
		}
		return []byte(*pending), nil
	}
	value := c.tx.db.driver.prefs.String(full)
	if value == "" {
		return nil, domain.ErrRecordNotFound
	}
	return []byte(value), nil
}

func (c *collection) Put(key string, value []byte) error {
	if !c.tx.writable {
		return domain.ErrReadOnlyTransaction
	}
	s := string(value)
	c.tx.writes[c.prefix+key] = &s
	return nil
}

func (c *collection) Delete(key string) error {
	if !c.tx.writable {
		return domain.ErrReadOnlyTransaction
	}
	c.tx.writes[c.prefix+key] = nil
	return nil
}

var _ ports.Driver = (*Driver)(nil)
