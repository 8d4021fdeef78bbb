package local

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// PlaylistRepository implements ports.PlaylistRepository.
// Records are keyed by playlist id; "<email>_playlist_ids" lists what a user owns.
type PlaylistRepository struct {
	db     ports.DatabaseOpener
	logger *slog.Logger
}

// NewPlaylistRepository creates a playlist repository.
func NewPlaylistRepository(db ports.DatabaseOpener, logger *slog.Logger) *PlaylistRepository {
	return &PlaylistRepository{
		db:     db,
		logger: logger,
	}
}

// SavePlaylists upserts every playlist and replaces the owner's id list.
// Records dropped from the list stay in storage but are no longer loaded.
func (r *PlaylistRepository) SavePlaylists(ctx context.Context, playlists []domain.Playlist, ownerEmail string) bool {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("save playlists skipped: storage unavailable", slog.String("owner", ownerEmail), slog.Any("error", err))
		return false
	}

	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}

	err = db.Update(ctx, []string{ports.CollectionPlaylists, ports.CollectionMetadata}, func(tx ports.Tx) error {
		cols, err := collections(tx, ports.CollectionPlaylists, ports.CollectionMetadata)
		if err != nil {
			return err
		}
		if err := putJSON(cols[1], ScopedKey(ownerEmail, KeyPlaylistIDs), ids); err != nil {
			return err
		}
		for _, p := range playlists {
			if p.SongIDs == nil {
				p.SongIDs = []string{}
			}
			if err := putJSON(cols[0], p.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("save playlists failed", slog.String("owner", ownerEmail), slog.Any("error", err))
		return false
	}
	return true
}

// LoadPlaylists returns the owner's playlists in list order.
func (r *PlaylistRepository) LoadPlaylists(ctx context.Context, ownerEmail string) []domain.Playlist {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("load playlists skipped: storage unavailable", slog.String("owner", ownerEmail), slog.Any("error", err))
		return []domain.Playlist{}
	}

	var playlists []domain.Playlist
	err = db.View(ctx, []string{ports.CollectionPlaylists, ports.CollectionMetadata}, func(tx ports.Tx) error {
		cols, err := collections(tx, ports.CollectionPlaylists, ports.CollectionMetadata)
		if err != nil {
			return err
		}
		ids, err := getIDs(cols[1], ScopedKey(ownerEmail, KeyPlaylistIDs))
		if err != nil {
			return err
		}

		playlists = make([]domain.Playlist, 0, len(ids))
		for _, id := range ids {
			var p domain.Playlist
			err := getJSON(cols[0], id, &p)
			if errors.Is(err, domain.ErrRecordNotFound) {
				r.logger.Warn("playlist data missing", slog.String("id", id))
				continue
			}
			if err != nil {
				r.logger.Warn("playlist corrupted", slog.String("id", id), slog.Any("error", err))
				continue
			}
			playlists = append(playlists, p)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("load playlists failed", slog.String("owner", ownerEmail), slog.Any("error", err))
		return []domain.Playlist{}
	}
	return playlists
}

var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
