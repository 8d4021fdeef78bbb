package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// PlaylistService manages the signed-in owner's playlists.
// All operations are thread-safe via sync.RWMutex.
type PlaylistService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	session    sessionInfo
	repository ports.PlaylistRepository
	bus        ports.EventBus
	newID      func() string

	// State
	owner     string
	playlists []domain.Playlist

	mu sync.RWMutex
}

// NewPlaylistService creates a new playlist service.
func NewPlaylistService(
	logger *slog.Logger,
	session sessionInfo,
	repository ports.PlaylistRepository,
	bus ports.EventBus,
) *PlaylistService {
	return &PlaylistService{
		logger:     logger,
		session:    session,
		repository: repository,
		bus:        bus,
		newID:      uuid.NewString,
	}
}

// Hydrate loads the playlists of the session owner.
func (s *PlaylistService) Hydrate(ctx context.Context) {
	owner := s.session.Email()
	playlists := s.repository.LoadPlaylists(ctx, owner)

	s.mu.Lock()
	s.owner = owner
	s.playlists = playlists
	s.mu.Unlock()

	s.logger.Debug("playlists loaded", slog.String("owner", owner), slog.Int("count", len(playlists)))
	s.bus.Publish(domain.NewPlaylistsChangedEvent(clonePlaylists(playlists)))
}

// Create adds a new playlist at the front, optionally seeded with one song.
func (s *PlaylistService) Create(ctx context.Context, name, songID string) (domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Playlist{}, domain.NewValidationError("name", name, "playlist name is required")
	}

	playlist := domain.Playlist{ID: s.newID(), Name: name, SongIDs: []string{}}
	if songID != "" {
		playlist.SongIDs = append(playlist.SongIDs, songID)
	}

	s.mu.Lock()
	s.playlists = append([]domain.Playlist{playlist}, s.playlists...)
	s.mu.Unlock()

	s.changed(ctx)
	return playlist, nil
}

// AddSong adds songID to a playlist. Adding a song twice is a no-op.
func (s *PlaylistService) AddSong(ctx context.Context, playlistID, songID string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.playlists, func(p domain.Playlist) bool { return p.ID == playlistID })
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrPlaylistNotFound
	}
	if s.playlists[idx].Contains(songID) {
		s.mu.Unlock()
		return nil
	}
	s.playlists[idx].SongIDs = append(slices.Clone(s.playlists[idx].SongIDs), songID)
	s.mu.Unlock()

	s.changed(ctx)
	return nil
}

// Playlists returns a copy of the owner's playlists.
func (s *PlaylistService) Playlists() []domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlaylists(s.playlists)
}

// Flush saves the playlists for the loaded owner.
func (s *PlaylistService) Flush(ctx context.Context) bool {
	s.mu.RLock()
	owner := s.owner
	playlists := clonePlaylists(s.playlists)
	s.mu.RUnlock()

	if owner == "" {
		return true
	}
	return s.repository.SavePlaylists(ctx, playlists, owner)
}

func (s *PlaylistService) changed(ctx context.Context) {
	if !s.Flush(ctx) {
		s.logger.Warn("playlists not saved")
	}
	s.bus.Publish(domain.NewPlaylistsChangedEvent(s.Playlists()))
}

func clonePlaylists(in []domain.Playlist) []domain.Playlist {
	out := make([]domain.Playlist, len(in))
	for i, p := range in {
		p.SongIDs = slices.Clone(p.SongIDs)
		out[i] = p
	}
	return out
}
