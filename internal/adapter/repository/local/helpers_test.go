package local

import (
	"context"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/blob"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage/preferences"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

const (
	adminEmail = "ridhamgupta805@gmail.com"
	guestEmail = "guest@vibemusic.app"
)

// Helper to create a gateway over in-memory fyne preferences
func newTestGateway() *storage.Gateway {
	driver := preferences.NewDriver(test.NewApp().Preferences(), logger.NewTestLogger())
	return storage.NewGateway(driver, storage.DefaultSchema("VibeMusicDB"), logger.NewTestLogger())
}

func newTestSongRepository() (*SongRepository, *blob.Registry, *storage.Gateway) {
	gw := newTestGateway()
	registry := blob.NewRegistry(logger.NewTestLogger())
	return NewSongRepository(gw, registry, adminEmail, logger.NewTestLogger()), registry, gw
}

// unavailableDB simulates storage that can never be opened.
type unavailableDB struct{}

func (unavailableDB) Open(context.Context) (ports.Database, error) {
	return nil, domain.NewRepositoryError("open", "gateway", "blocked", domain.ErrStorageUnavailable)
}

// putMetadata writes a raw metadata value, bypassing the repositories.
func putMetadata(t *testing.T, gw *storage.Gateway, key string, v any) {
	t.Helper()
	db, err := gw.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Update(context.Background(), []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
		meta, err := tx.Collection(ports.CollectionMetadata)
		if err != nil {
			return err
		}
		return putJSON(meta, key, v)
	}))
}

func getMetadata(t *testing.T, gw *storage.Gateway, key string) []string {
	t.Helper()
	db, err := gw.Open(context.Background())
	require.NoError(t, err)
	var ids []string
	require.NoError(t, db.View(context.Background(), []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
		meta, err := tx.Collection(ports.CollectionMetadata)
		if err != nil {
			return err
		}
		ids, err = getIDs(meta, key)
		return err
	}))
	return ids
}

func songIDs(songs []domain.Song) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}
	return ids
}
