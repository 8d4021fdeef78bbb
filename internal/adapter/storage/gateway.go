// Package storage opens the library database once and shares the handle.
//
// Drivers live in sub-packages:
//
//	preferences  fyne.Preferences, one JSON string per key
//	pebble       embedded LSM store for the headless CLI
//	indexeddb    browser IndexedDB (js/wasm builds only)
//
// Key layout is shared by every driver: a value lives in a collection under a
// string key. The metadata collection holds the scoped id lists.
package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// DefaultSchemaVersion is bumped whenever a collection is added.
const DefaultSchemaVersion = 2

// DefaultSchema returns the library schema with the given database name.
func DefaultSchema(name string) ports.Schema {
	return ports.Schema{
		Name:        name,
		Version:     DefaultSchemaVersion,
		Collections: ports.Collections(),
	}
}

// Gateway lazily opens the database through a driver.
// Concurrent Open calls share a single attempt; a successful handle is cached
// and a failed attempt is retried on the next call.
type Gateway struct {
	driver ports.Driver
	schema ports.Schema
	logger *slog.Logger

	mu     sync.Mutex
	db     ports.Database
	closed bool
}

// NewGateway creates a gateway. Nothing is opened until the first Open call.
func NewGateway(driver ports.Driver, schema ports.Schema, logger *slog.Logger) *Gateway {
	return &Gateway{
		driver: driver,
		schema: schema,
		logger: logger,
	}
}

// Open returns the shared database handle.
func (g *Gateway) Open(ctx context.Context) (ports.Database, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, domain.NewRepositoryError("open", "gateway", "gateway closed", domain.ErrStorageUnavailable)
	}
	if g.db != nil {
		return g.db, nil
	}
	if g.driver == nil {
		return nil, domain.NewRepositoryError("open", "gateway", "no storage driver", domain.ErrStorageUnavailable)
	}

	db, err := g.driver.Open(ctx, g.schema)
	if err != nil {
		g.logger.Warn("failed to open database",
			slog.String("name", g.schema.Name),
			slog.Any("error", err))
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			err = errors.Join(domain.ErrStorageUnavailable, err)
		}
		return nil, domain.NewRepositoryError("open", "gateway", "driver failed", err)
	}

	g.logger.Debug("database opened",
		slog.String("name", g.schema.Name),
		slog.Uint64("version", uint64(g.schema.Version)))
	g.db = db
	return db, nil
}

// Close closes the cached handle, if any. Later Open calls fail.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

var _ ports.DatabaseOpener = (*Gateway)(nil)
