//go:build !(js && wasm)

package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage/pebble"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage/preferences"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

const defaultStore = StorePebble

var supportedStores = []string{StorePebble, StorePreferences}

func (a *Application) newDriver(log *slog.Logger) (ports.Driver, error) {
	switch a.config.Store {
	case StorePebble:
		return pebble.NewDriver(filepath.Join(a.config.DataDir, "store"), log), nil
	case StorePreferences:
		return preferences.NewDriver(a.ensureFyneApp().Preferences(), log), nil
	default:
		return nil, fmt.Errorf("store %q is not available on this platform", a.config.Store)
	}
}
