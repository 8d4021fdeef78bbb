package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/blob"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/repository/local"
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

var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

// testEnv wires real local repositories over in-memory fyne preferences.
type testEnv struct {
	db        ports.DatabaseOpener
	registry  *blob.Registry
	bus       *eventbus.SyncEventBus
	songs     *local.SongRepository
	profiles  *local.ProfileRepository
	recents   *local.RecentlyPlayedRepository
	history   *local.SearchHistoryRepository
	session   *SessionService
	library   *LibraryService
	playlists *PlaylistService
}

type envOption func(*LibraryDependencies)

func withResolver(r ports.MetadataResolver) envOption {
	return func(d *LibraryDependencies) { d.Resolver = r }
}

func withTags(r ports.FileMetadataReader) envOption {
	return func(d *LibraryDependencies) { d.Tags = r }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	driver := preferences.NewDriver(test.NewApp().Preferences(), logger.NewTestLogger())
	gw := storage.NewGateway(driver, storage.DefaultSchema("VibeMusicDB"), logger.NewTestLogger())
	return newTestEnvWithDB(t, gw, opts...)
}

func newTestEnvWithDB(t *testing.T, db ports.DatabaseOpener, opts ...envOption) *testEnv {
	t.Helper()
	log := logger.NewTestLogger()
	env := &testEnv{
		db:       db,
		registry: blob.NewRegistry(log),
		bus:      eventbus.NewSyncEventBus(log),
	}
	env.songs = local.NewSongRepository(db, env.registry, adminEmail, log)
	env.profiles = local.NewProfileRepository(db, log)
	env.recents = local.NewRecentlyPlayedRepository(db, log)
	env.history = local.NewSearchHistoryRepository(db, log)

	env.session = NewSessionService(log, env.profiles, env.bus, guestEmail, adminEmail)

	deps := LibraryDependencies{
		Songs:   env.songs,
		Recents: env.recents,
		History: env.history,
		Codec:   env.registry,
		Bus:     env.bus,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.library = NewLibraryService(log, env.session, deps, LibraryOptions{
		Clock: func() time.Time { return testNow },
		NewID: sequentialIDs("up"),
	})
	env.playlists = NewPlaylistService(log, env.session, local.NewPlaylistRepository(db, log), env.bus)
	return env
}

// login switches the session the way the application does.
func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	e.library.Flush(ctx)
	e.playlists.Flush(ctx)
	if err := e.session.UpdateProfile(ctx, domain.UserProfile{Name: email, Email: email, IsLoggedIn: true}); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	e.library.Hydrate(ctx)
	e.playlists.Hydrate(ctx)
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// recorder collects published events of one type.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func record(bus ports.EventBus, eventType domain.EventType) *recorder {
	r := &recorder{}
	bus.Subscribe(eventType, func(e domain.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

type stubResolver struct {
	meta    domain.ResolvedMetadata
	results []domain.ResolvedMetadata
	err     error
	queries []string
}

func (s *stubResolver) Resolve(_ context.Context, q string) (domain.ResolvedMetadata, error) {
	s.queries = append(s.queries, q)
	return s.meta, s.err
}

func (s *stubResolver) Search(_ context.Context, q string) ([]domain.ResolvedMetadata, error) {
	s.queries = append(s.queries, q)
	return s.results, s.err
}

type stubTags struct {
	meta domain.ResolvedMetadata
	err  error
}

func (s stubTags) ReadFile(context.Context, string) (domain.ResolvedMetadata, error) {
	return s.meta, s.err
}

// unavailableDB simulates storage that can never be opened.
type unavailableDB struct{}

func (unavailableDB) Open(context.Context) (ports.Database, error) {
	return nil, domain.NewRepositoryError("open", "gateway", "blocked", domain.ErrStorageUnavailable)
}

func ids(songs []domain.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}
