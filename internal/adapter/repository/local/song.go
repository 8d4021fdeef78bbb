package local

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// SongRepository implements ports.SongRepository.
//
// Song records are shared by id across users; what a user owns is the id list
// under "<email>_song_ids". Ids saved by the admin also join "public_song_ids",
// which every user loads.
type SongRepository struct {
	db         ports.DatabaseOpener
	codec      ports.BlobCodec
	adminEmail string
	logger     *slog.Logger
}

// NewSongRepository creates a song repository.
func NewSongRepository(db ports.DatabaseOpener, codec ports.BlobCodec, adminEmail string, logger *slog.Logger) *SongRepository {
	return &SongRepository{
		db:         db,
		codec:      codec,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// SaveSongs writes the records and replaces the owner's id list.
// Payload capture happens before the transaction starts so no transaction
// stays open across it.
func (r *SongRepository) SaveSongs(ctx context.Context, songs []domain.Song, ownerEmail string) bool {
	records := make([]domain.Song, len(songs))
	ids := make([]string, len(songs))
	for i, s := range songs {
		records[i] = r.materialize(ctx, s)
		ids[i] = s.ID
	}

	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("save songs skipped: storage unavailable", slog.String("owner", ownerEmail), slog.Any("error", err))
		return false
	}

	err = db.Update(ctx, []string{ports.CollectionSongs, ports.CollectionMetadata}, func(tx ports.Tx) error {
		cols, err := collections(tx, ports.CollectionSongs, ports.CollectionMetadata)
		if err != nil {
			return err
		}
		songsCol, meta := cols[0], cols[1]

		for _, rec := range records {
			if err := putJSON(songsCol, rec.ID, rec); err != nil {
				return err
			}
		}
		if err := putJSON(meta, ScopedKey(ownerEmail, KeySongIDs), ids); err != nil {
			return err
		}
		if err := putJSON(meta, KeyInitialized, true); err != nil {
			return err
		}
		if ownerEmail != r.adminEmail {
			return nil
		}
		public, err := getIDs(meta, KeyPublicSongIDs)
		if err != nil {
			return err
		}
		return putJSON(meta, KeyPublicSongIDs, union(public, ids))
	})
	if err != nil {
		r.logger.Warn("save songs failed",
			slog.String("owner", ownerEmail),
			slog.Int("count", len(songs)),
			slog.Any("error", domain.NewRepositoryError("save", "songs", "transaction failed", err)))
		return false
	}

	r.logger.Debug("songs saved", slog.String("owner", ownerEmail), slog.Int("count", len(songs)))
	return true
}

// materialize captures payloads behind transient references. A failed capture
// leaves the payload absent and only costs a warning.
func (r *SongRepository) materialize(ctx context.Context, s domain.Song) domain.Song {
	if s.AudioBlob == nil && r.codec.IsTransient(s.AudioURL) {
		if p, err := r.codec.Materialize(ctx, s.AudioURL); err != nil {
			r.logger.Warn("audio payload not captured", slog.String("song", s.ID), slog.Any("error", err))
		} else {
			s.AudioBlob = p
		}
	}
	if s.CoverBlob == nil && r.codec.IsTransient(s.CoverURL) {
		if p, err := r.codec.Materialize(ctx, s.CoverURL); err != nil {
			r.logger.Warn("cover payload not captured", slog.String("song", s.ID), slog.Any("error", err))
		} else {
			s.CoverBlob = p
		}
	}
	return s
}

// LoadSongs returns the owner's songs followed by the public songs the owner
// does not list, with fresh references for every stored payload.
func (r *SongRepository) LoadSongs(ctx context.Context, ownerEmail string) []domain.Song {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("load songs skipped: storage unavailable", slog.String("owner", ownerEmail), slog.Any("error", err))
		return []domain.Song{}
	}

	var songs []domain.Song
	err = db.View(ctx, []string{ports.CollectionSongs, ports.CollectionMetadata}, func(tx ports.Tx) error {
		cols, err := collections(tx, ports.CollectionSongs, ports.CollectionMetadata)
		if err != nil {
			return err
		}
		songsCol, meta := cols[0], cols[1]

		owned, err := getIDs(meta, ScopedKey(ownerEmail, KeySongIDs))
		if err != nil {
			return err
		}
		public, err := getIDs(meta, KeyPublicSongIDs)
		if err != nil {
			return err
		}

		ids := union(owned, public)
		songs = make([]domain.Song, 0, len(ids))
		for _, id := range ids {
			var s domain.Song
			err := getJSON(songsCol, id, &s)
			if errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				r.logger.Warn("song record corrupted", slog.String("id", id), slog.Any("error", err))
				continue
			}
			songs = append(songs, s)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("load songs failed",
			slog.String("owner", ownerEmail),
			slog.Any("error", domain.NewRepositoryError("load", "songs", "transaction failed", err)))
		return []domain.Song{}
	}

	for i := range songs {
		if songs[i].AudioBlob != nil {
			songs[i].AudioURL = r.codec.Regenerate(*songs[i].AudioBlob)
		}
		if songs[i].CoverBlob != nil {
			songs[i].CoverURL = r.codec.Regenerate(*songs[i].CoverBlob)
		}
	}
	return songs
}

// IsInitialized reports whether a song save has ever committed.
func (r *SongRepository) IsInitialized(ctx context.Context) bool {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("initialization check skipped: storage unavailable", slog.Any("error", err))
		return false
	}

	var initialized bool
	err = db.View(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
		meta, err := tx.Collection(ports.CollectionMetadata)
		if err != nil {
			return err
		}
		err = getJSON(meta, KeyInitialized, &initialized)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		r.logger.Warn("initialization check failed", slog.Any("error", err))
		return false
	}
	return initialized
}

var _ ports.SongRepository = (*SongRepository)(nil)
