//go:build js && wasm

package app

import (
	"fmt"
	"log/slog"

	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage/indexeddb"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage/preferences"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

const defaultStore = StoreIndexedDB

var supportedStores = []string{StoreIndexedDB, StorePreferences}

func (a *Application) newDriver(log *slog.Logger) (ports.Driver, error) {
	switch a.config.Store {
	case StoreIndexedDB:
		return indexeddb.NewDriver(log), nil
	case StorePreferences:
		return preferences.NewDriver(a.ensureFyneApp().Preferences(), log), nil
	default:
		return nil, fmt.Errorf("store %q is not available on this platform", a.config.Store)
	}
}
