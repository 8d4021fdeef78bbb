// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/blob"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/inbox"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/metadata"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/repository/local"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/storage"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
	"github.com/tejashwikalptaru/vibemusic/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (boot, autosave, shutdown)
// - Switching the signed-in user
type Application struct {
	config  Config
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	gateway  *storage.Gateway
	registry *blob.Registry
	inbox    *inbox.Watcher

	// Repositories
	songRepo     *local.SongRepository
	profileRepo  *local.ProfileRepository
	playlistRepo *local.PlaylistRepository

	// Services
	sessionService  *service.SessionService
	libraryService  *service.LibraryService
	playlistService *service.PlaylistService
	autosaver       *service.Autosaver

	// Save status of the signed-in user, reset on every session change
	saveMu   sync.Mutex
	lastSave *domain.AutosaveCompletedEvent

	shutdownOnce sync.Once
}

// NewApplication creates a new application with all dependencies wired.
// Nothing touches storage until Boot.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	app := &Application{config: config, fyneApp: config.FyneApp}

	// Step 1: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(config.LogLevel, slog.LevelInfo),
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("store", config.Store))

	// Step 2: Create an event bus; every event is traced at debug level
	app.eventBus = eventbus.NewSyncEventBus(app.logger.With(slog.String("component", "eventbus")))
	eventLog := app.logger.With(slog.String("component", "events"))
	app.eventBus.SubscribeAll(func(e domain.Event) {
		eventLog.Debug("event", slog.String("type", string(e.Type())))
	})

	// Step 3: Create storage
	driver, err := app.newDriver(app.logger.With(slog.String("driver", config.Store)))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage driver: %w", err)
	}
	schema := storage.DefaultSchema(config.DatabaseName)
	schema.Version = config.SchemaVersion
	app.gateway = storage.NewGateway(driver, schema, app.logger.With(slog.String("component", "gateway")))
	app.registry = blob.NewRegistry(app.logger.With(slog.String("component", "blobs")))

	// Step 4: Create repositories
	repoLog := app.logger.With(slog.String("component", "repository"))
	app.songRepo = local.NewSongRepository(app.gateway, app.registry, config.AdminEmail, repoLog)
	app.profileRepo = local.NewProfileRepository(app.gateway, repoLog)
	app.playlistRepo = local.NewPlaylistRepository(app.gateway, repoLog)

	// Step 5: Create services (with dependency injection)
	app.sessionService = service.NewSessionService(
		app.logger.With(slog.String("service", "session")),
		app.profileRepo,
		app.eventBus,
		config.GuestEmail,
		config.AdminEmail,
	)

	app.libraryService = service.NewLibraryService(
		app.logger.With(slog.String("service", "library")),
		app.sessionService,
		service.LibraryDependencies{
			Songs:    app.songRepo,
			Recents:  local.NewRecentlyPlayedRepository(app.gateway, repoLog),
			History:  local.NewSearchHistoryRepository(app.gateway, repoLog),
			Codec:    app.registry,
			Tags:     metadata.NewTagReader(app.registry, app.logger.With(slog.String("component", "tags"))),
			Resolver: metadata.NewRemoteResolver(config.MetadataEndpoint, nil, app.logger.With(slog.String("component", "resolver"))),
			Bus:      app.eventBus,
		},
		service.LibraryOptions{
			RecentlyPlayedLimit: config.RecentlyPlayedLimit,
			SearchHistoryLimit:  config.SearchHistoryLimit,
		},
	)

	app.playlistService = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		app.sessionService,
		app.playlistRepo,
		app.eventBus,
	)

	app.autosaver = service.NewAutosaver(
		app.logger.With(slog.String("service", "autosave")),
		app.eventBus,
		config.AutosaveInterval,
		app.libraryService.Owner,
		app.libraryService,
		app.playlistService,
		app.sessionService,
	)

	app.trackSaves(app.eventBus)

	// Step 6: Optional inbox
	if config.InboxDir != "" {
		app.inbox = inbox.NewWatcher(
			config.InboxDir,
			app.libraryService,
			app.eventBus,
			app.logger.With(slog.String("component", "inbox")),
		)
	}

	return app, nil
}

// trackSaves records autosave results that belong to the signed-in user.
// Results for a previous owner, flushed during a switch, are filtered out.
func (a *Application) trackSaves(bus ports.FilteringEventBus) {
	bus.SubscribeFiltered(domain.EventAutosaveCompleted, func(e domain.Event) bool {
		saved, ok := e.(domain.AutosaveCompletedEvent)
		return ok && saved.Owner == a.sessionService.Email()
	}, func(e domain.Event) {
		saved := e.(domain.AutosaveCompletedEvent)
		a.saveMu.Lock()
		a.lastSave = &saved
		a.saveMu.Unlock()
	})
	bus.Subscribe(domain.EventSessionChanged, func(domain.Event) {
		a.saveMu.Lock()
		a.lastSave = nil
		a.saveMu.Unlock()
	})
}

// LastSave returns the most recent autosave result for the signed-in user.
// The second value is false when nothing was flushed since the session began.
func (a *Application) LastSave() (domain.AutosaveCompletedEvent, bool) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if a.lastSave == nil {
		return domain.AutosaveCompletedEvent{}, false
	}
	return *a.lastSave, true
}

// ensureFyneApp returns the injected Fyne app or creates one.
func (a *Application) ensureFyneApp() fyne.App {
	if a.fyneApp == nil {
		a.fyneApp = fyneapp.NewWithID(a.config.AppID)
	}
	return a.fyneApp
}

// Boot restores the last session and loads its library and playlists.
// linkedSongID, when set, is opened as the current song. Storage failures
// are not fatal: the application then runs on the built-in catalog.
func (a *Application) Boot(ctx context.Context, linkedSongID string) error {
	if _, err := a.gateway.Open(ctx); err != nil {
		a.logger.Warn("storage unavailable, changes will not persist", slog.Any("error", err))
	}

	a.sessionService.Restore(ctx)
	if err := a.libraryService.Boot(ctx, linkedSongID); err != nil {
		a.logger.Warn("linked song not opened", slog.Any("error", err))
	}
	a.playlistService.Hydrate(ctx)

	a.logger.Info("VibeMusic booted",
		slog.String("user", a.sessionService.Email()),
		slog.Int("songs", len(a.libraryService.Songs(false))))
	return nil
}

// Start launches the background workers: autosave and, if configured, the
// inbox watcher. They stop when ctx is cancelled or on Shutdown.
func (a *Application) Start(ctx context.Context) error {
	a.autosaver.Start(ctx)
	if a.inbox != nil {
		if err := a.inbox.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch inbox: %w", err)
		}
	}
	return nil
}

// Login switches to the given user. The previous user's state is flushed
// first, then the new user's library and playlists are loaded.
func (a *Application) Login(ctx context.Context, profile domain.UserProfile) error {
	a.autosaver.FlushNow(ctx)

	profile.IsLoggedIn = true
	if err := a.sessionService.UpdateProfile(ctx, profile); err != nil {
		return err
	}
	a.reload(ctx)
	return nil
}

// Logout switches back to the guest. Per-user data stays in storage.
func (a *Application) Logout(ctx context.Context) {
	a.autosaver.FlushNow(ctx)
	a.sessionService.Logout(ctx)
	a.reload(ctx)
}

func (a *Application) reload(ctx context.Context) {
	a.libraryService.Hydrate(ctx)
	a.playlistService.Hydrate(ctx)
}

// Flush writes all in-memory state now.
func (a *Application) Flush(ctx context.Context) bool {
	return a.autosaver.FlushNow(ctx)
}

// Shutdown stops background work, saves state and closes storage.
// Calling it more than once is safe.
func (a *Application) Shutdown() error {
	var err error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		a.autosaver.Stop()
		if a.inbox != nil {
			if cerr := a.inbox.Close(); cerr != nil {
				a.logger.Warn("failed to stop inbox watcher", slog.Any("error", cerr))
			}
		}

		// Save the current state
		if !a.autosaver.FlushNow(context.Background()) {
			a.logger.Warn("final save incomplete")
		}

		err = a.gateway.Close()
		if cerr := a.eventBus.Close(); cerr != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", cerr))
		}
		a.logger.Info("application shutdown complete")
	})
	return err
}

// Config returns the configuration the application was built with.
func (a *Application) Config() Config { return a.config }

func (a *Application) Logger() *slog.Logger { return a.logger }

func (a *Application) Session() *service.SessionService { return a.sessionService }

func (a *Application) Library() *service.LibraryService { return a.libraryService }

func (a *Application) Playlists() *service.PlaylistService { return a.playlistService }

// EventBus returns the application event bus.
func (a *Application) EventBus() *eventbus.SyncEventBus { return a.eventBus }
