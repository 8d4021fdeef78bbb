// Package storagetest holds the behaviour every storage driver must share.
// Driver packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// NewDriverFunc returns a driver over fresh, empty storage. Databases opened
// from the same driver must see the same data.
type NewDriverFunc func(t *testing.T) ports.Driver

func schema(version uint, collections ...string) ports.Schema {
	return ports.Schema{Name: "TestDB", Version: version, Collections: collections}
}

func open(t *testing.T, d ports.Driver, s ports.Schema) ports.Database {
	t.Helper()
	db, err := d.Open(context.Background(), s)
	require.NoError(t, err)
	return db
}

// Run exercises a driver.
func Run(t *testing.T, newDriver NewDriverFunc) {
	full := schema(2, ports.Collections()...)
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		err := db.View(ctx, []string{ports.CollectionSongs}, func(tx ports.Tx) error {
			c, err := tx.Collection(ports.CollectionSongs)
			require.NoError(t, err)
			_, err = c.Get("nope")
			assert.ErrorIs(t, err, domain.ErrRecordNotFound)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("PutThenGet", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		err := db.Update(ctx, []string{ports.CollectionSongs, ports.CollectionMetadata}, func(tx ports.Tx) error {
			songs, err := tx.Collection(ports.CollectionSongs)
			require.NoError(t, err)
			meta, err := tx.Collection(ports.CollectionMetadata)
			require.NoError(t, err)
			require.NoError(t, songs.Put("1", []byte(`{"id":"1"}`)))
			require.NoError(t, meta.Put("a@x_song_ids", []byte(`["1"]`)))

			got, err := songs.Get("1")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"1"}`, string(got))
			return nil
		})
		require.NoError(t, err)

		err = db.View(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
			meta, err := tx.Collection(ports.CollectionMetadata)
			require.NoError(t, err)
			got, err := meta.Get("a@x_song_ids")
			require.NoError(t, err)
			assert.Equal(t, `["1"]`, string(got))
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("Overwrite", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		for _, v := range []string{"one", "two"} {
			require.NoError(t, db.Update(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
				meta, _ := tx.Collection(ports.CollectionMetadata)
				return meta.Put("k", []byte(v))
			}))
		}
		require.NoError(t, db.View(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
			meta, _ := tx.Collection(ports.CollectionMetadata)
			got, err := meta.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "two", string(got))
			return nil
		}))
	})

	t.Run("FailedUpdateDiscardsWrites", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		boom := errors.New("boom")
		err := db.Update(ctx, []string{ports.CollectionProfiles}, func(tx ports.Tx) error {
			c, _ := tx.Collection(ports.CollectionProfiles)
			require.NoError(t, c.Put("a@x", []byte("{}")))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		require.NoError(t, db.View(ctx, []string{ports.CollectionProfiles}, func(tx ports.Tx) error {
			c, _ := tx.Collection(ports.CollectionProfiles)
			_, err := c.Get("a@x")
			assert.ErrorIs(t, err, domain.ErrRecordNotFound)
			return nil
		}))
	})

	t.Run("Delete", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		require.NoError(t, db.Update(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
			meta, _ := tx.Collection(ports.CollectionMetadata)
			return meta.Put("last_active_email", []byte(`"a@x"`))
		}))
		require.NoError(t, db.Update(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
			meta, _ := tx.Collection(ports.CollectionMetadata)
			require.NoError(t, meta.Delete("last_active_email"))
			require.NoError(t, meta.Delete("never_written"))
			_, err := meta.Get("last_active_email")
			assert.ErrorIs(t, err, domain.ErrRecordNotFound)
			return nil
		}))
		require.NoError(t, db.View(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
			meta, _ := tx.Collection(ports.CollectionMetadata)
			_, err := meta.Get("last_active_email")
			assert.ErrorIs(t, err, domain.ErrRecordNotFound)
			return nil
		}))
	})

	t.Run("ViewIsReadOnly", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		require.NoError(t, db.View(ctx, []string{ports.CollectionSongs}, func(tx ports.Tx) error {
			c, _ := tx.Collection(ports.CollectionSongs)
			assert.ErrorIs(t, c.Put("1", []byte("{}")), domain.ErrReadOnlyTransaction)
			assert.ErrorIs(t, c.Delete("1"), domain.ErrReadOnlyTransaction)
			return nil
		}))
	})

	t.Run("CollectionOutsideScope", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		require.NoError(t, db.View(ctx, []string{ports.CollectionSongs}, func(tx ports.Tx) error {
			_, err := tx.Collection(ports.CollectionPlaylists)
			assert.ErrorIs(t, err, domain.ErrUnknownCollection)
			return nil
		}))

		err := db.View(ctx, []string{"albums"}, func(ports.Tx) error { return nil })
		assert.ErrorIs(t, err, domain.ErrUnknownCollection)
	})

	t.Run("SchemaUpgradeCreatesCollections", func(t *testing.T) {
		d := newDriver(t)

		v1 := open(t, d, schema(1, ports.CollectionSongs, ports.CollectionMetadata))
		require.NoError(t, v1.Update(ctx, []string{ports.CollectionSongs}, func(tx ports.Tx) error {
			c, _ := tx.Collection(ports.CollectionSongs)
			return c.Put("1", []byte(`{"id":"1"}`))
		}))
		require.NoError(t, v1.Close())

		// Same version, more collections: nothing is created.
		same := open(t, d, schema(1, ports.CollectionSongs, ports.CollectionMetadata, ports.CollectionPlaylists))
		err := same.View(ctx, []string{ports.CollectionPlaylists}, func(ports.Tx) error { return nil })
		assert.ErrorIs(t, err, domain.ErrUnknownCollection)
		require.NoError(t, same.Close())

		v2 := open(t, d, full)
		defer v2.Close()
		require.NoError(t, v2.View(ctx, ports.Collections(), func(tx ports.Tx) error {
			c, err := tx.Collection(ports.CollectionSongs)
			require.NoError(t, err)
			got, err := c.Get("1")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"1"}`, string(got))

			_, err = tx.Collection(ports.CollectionPlaylists)
			assert.NoError(t, err)
			return nil
		}))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		db := open(t, newDriver(t), full)
		defer db.Close()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := db.Update(cancelled, []string{ports.CollectionSongs}, func(ports.Tx) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
