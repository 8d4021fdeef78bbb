// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
)

// SongRepository persists songs per owner.
//
// Failures never propagate: storage problems are logged and surface as false
// or an empty result.
//
// Thread-safety: Implementations must be thread-safe. Concurrent saves for the
// same owner are not serialized; the last write to the owner's id list wins.
type SongRepository interface {
	// SaveSongs writes every song record and replaces the owner's id list with
	// exactly the ids given. Transient audio/cover references without a payload
	// are materialized into durable payloads first. Saving as the admin also
	// adds the ids to the public catalog.
	//
	// Returns true when the transaction committed.
	SaveSongs(ctx context.Context, songs []domain.Song, ownerEmail string) bool

	// LoadSongs returns the owner's songs followed by public songs the owner
	// does not already list. Dangling ids are skipped and stored payloads get a
	// fresh transient reference.
	//
	// Returns an empty slice when nothing is stored or storage fails.
	LoadSongs(ctx context.Context, ownerEmail string) []domain.Song

	// IsInitialized reports whether any song save has ever committed.
	IsInitialized(ctx context.Context) bool
}

// ProfileRepository persists user profiles and the active-session marker.
//
// Thread-safety: Implementations must be thread-safe.
type ProfileRepository interface {
	// SaveProfile upserts the profile and marks its email as the active user.
	SaveProfile(ctx context.Context, profile domain.UserProfile) bool

	// LoadActiveProfile returns the profile of the last active user, if any.
	LoadActiveProfile(ctx context.Context) (*domain.UserProfile, bool)

	// LoadProfile returns the stored profile for email, if any.
	LoadProfile(ctx context.Context, email string) (*domain.UserProfile, bool)

	// ClearActiveSession forgets the active user. Profiles are kept.
	ClearActiveSession(ctx context.Context) bool
}

// PlaylistRepository persists playlists per owner.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// SavePlaylists upserts every playlist and replaces the owner's playlist
	// id list with exactly the ids given.
	SavePlaylists(ctx context.Context, playlists []domain.Playlist, ownerEmail string) bool

	// LoadPlaylists returns the owner's playlists, skipping dangling ids.
	LoadPlaylists(ctx context.Context, ownerEmail string) []domain.Playlist
}

// RecentlyPlayedRepository persists the per-owner recently played id list.
// Callers enforce the cap before saving.
type RecentlyPlayedRepository interface {
	SaveRecentlyPlayed(ctx context.Context, ids []string, ownerEmail string) bool
	LoadRecentlyPlayed(ctx context.Context, ownerEmail string) []string
}

// SearchHistoryRepository persists the global search history.
// Callers enforce the cap before saving.
type SearchHistoryRepository interface {
	SaveSearchHistory(ctx context.Context, entries []string) bool
	LoadSearchHistory(ctx context.Context) []string
}
