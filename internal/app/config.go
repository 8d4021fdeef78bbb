package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"fyne.io/fyne/v2"
	"github.com/kelseyhightower/envconfig"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
	"gopkg.in/yaml.v3"
)

// Supported stores.
const (
	StorePebble      = "pebble"
	StorePreferences = "preferences"
	StoreIndexedDB   = "indexeddb"
)

// EnvPrefix prefixes every environment override, e.g. VIBEMUSIC_STORE.
const EnvPrefix = "vibemusic"

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier (also the fyne preferences scope)
	AppID   string `yaml:"app_id" envconfig:"APP_ID"`
	AppName string `yaml:"app_name" envconfig:"APP_NAME"`

	// DataDir holds the pebble store
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`

	// Store selects the storage driver: pebble, preferences or indexeddb
	Store         string `yaml:"store" envconfig:"STORE"`
	DatabaseName  string `yaml:"database_name" envconfig:"DATABASE_NAME"`
	SchemaVersion uint   `yaml:"schema_version" envconfig:"SCHEMA_VERSION"`

	AdminEmail string `yaml:"admin_email" envconfig:"ADMIN_EMAIL"`
	GuestEmail string `yaml:"guest_email" envconfig:"GUEST_EMAIL"`

	AutosaveInterval    time.Duration `yaml:"autosave_interval" envconfig:"AUTOSAVE_INTERVAL"`
	RecentlyPlayedLimit int           `yaml:"recently_played_limit" envconfig:"RECENTLY_PLAYED_LIMIT"`
	SearchHistoryLimit  int           `yaml:"search_history_limit" envconfig:"SEARCH_HISTORY_LIMIT"`

	// InboxDir, when set, is watched for audio files to import
	InboxDir string `yaml:"inbox_dir" envconfig:"INBOX_DIR"`

	// MetadataEndpoint is the base URL of the track lookup service (empty disables lookups)
	MetadataEndpoint string `yaml:"metadata_endpoint" envconfig:"METADATA_ENDPOINT"`

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`

	// FyneApp allows injecting a Fyne app (tests, desktop shell); nil creates one on demand
	FyneApp fyne.App `yaml:"-" ignored:"true"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()

	dataDir := ".vibemusic"
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "vibemusic")
	}

	return Config{
		AppID:               "com.vibemusic.app",
		AppName:             "VibeMusic",
		DataDir:             dataDir,
		Store:               defaultStore,
		DatabaseName:        "VibeMusicDB",
		SchemaVersion:       2,
		AdminEmail:          "ridhamgupta805@gmail.com",
		GuestEmail:          "guest@vibemusic.app",
		AutosaveInterval:    5 * time.Second,
		RecentlyPlayedLimit: 10,
		SearchHistoryLimit:  5,
		LogLevel:            loggerCfg.Level.String(),
		LogFormat:           loggerCfg.Format,
	}
}

// LoadConfig layers the optional YAML file at path and VIBEMUSIC_*
// environment variables over the defaults, then validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case !slices.Contains(supportedStores, c.Store):
		return domain.NewValidationError("store", c.Store, fmt.Sprintf("must be one of %v", supportedStores))
	case c.Store == StorePebble && c.DataDir == "":
		return domain.NewValidationError("data_dir", c.DataDir, "required for the pebble store")
	case c.DatabaseName == "":
		return domain.NewValidationError("database_name", c.DatabaseName, "must not be empty")
	case c.SchemaVersion == 0:
		return domain.NewValidationError("schema_version", c.SchemaVersion, "must be at least 1")
	case c.GuestEmail == "":
		return domain.NewValidationError("guest_email", c.GuestEmail, "must not be empty")
	case c.AdminEmail == c.GuestEmail:
		return domain.NewValidationError("admin_email", c.AdminEmail, "must differ from guest_email")
	case c.AutosaveInterval <= 0:
		return domain.NewValidationError("autosave_interval", c.AutosaveInterval, "must be positive")
	case c.RecentlyPlayedLimit <= 0:
		return domain.NewValidationError("recently_played_limit", c.RecentlyPlayedLimit, "must be positive")
	case c.SearchHistoryLimit <= 0:
		return domain.NewValidationError("search_history_limit", c.SearchHistoryLimit, "must be positive")
	case !slices.Contains([]string{logger.FormatText, logger.FormatJSON, logger.FormatTint}, c.LogFormat):
		return domain.NewValidationError("log_format", c.LogFormat, "must be text, json or tint")
	}
	return nil
}
