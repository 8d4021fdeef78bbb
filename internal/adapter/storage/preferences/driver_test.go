package preferences

import (
	"context"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage/storagetest"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

func newTestDriver(_ *testing.T) ports.Driver {
	return NewDriver(test.NewApp().Preferences(), logger.NewTestLogger())
}

func TestDriver_Conformance(t *testing.T) {
	storagetest.Run(t, newTestDriver)
}

func TestDriver_KeyLayout(t *testing.T) {
	prefs := test.NewApp().Preferences()

	d := NewDriver(prefs, logger.NewTestLogger())
	db, err := d.Open(context.Background(), ports.Schema{Name: "VibeMusicDB", Version: 2, Collections: ports.Collections()})
	require.NoError(t, err)

	require.NoError(t, db.Update(context.Background(), []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
		meta, err := tx.Collection(ports.CollectionMetadata)
		require.NoError(t, err)
		return meta.Put("search_history", []byte(`["lofi"]`))
	}))

	assert.Equal(t, `["lofi"]`, prefs.String("VibeMusicDB.metadata.search_history"))
	assert.Equal(t, 2, prefs.Int("VibeMusicDB._schema.version"))
	assert.ElementsMatch(t, ports.Collections(), prefs.StringList("VibeMusicDB._schema.collections"))
}

func TestDriver_NilPreferences(t *testing.T) {
	d := NewDriver(nil, logger.NewTestLogger())
	_, err := d.Open(context.Background(), ports.Schema{Name: "x", Version: 1})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
