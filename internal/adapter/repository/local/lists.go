package local

import (
	"context"
	"log/slog"

	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// listStore reads and overwrites whole string lists in the metadata collection.
type listStore struct {
	db     ports.DatabaseOpener
	logger *slog.Logger
}

func (s listStore) save(ctx context.Context, key string, values []string) bool {
	db, err := s.db.Open(ctx)
	if err != nil {
		s.logger.Warn("save skipped: storage unavailable", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if values == nil {
		values = []string{}
	}
	err = db.Update(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
		meta, err := tx.Collection(ports.CollectionMetadata)
		if err != nil {
			return err
		}
		return putJSON(meta, key, values)
	})
	if err != nil {
		s.logger.Warn("save failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (s listStore) load(ctx context.Context, key string) []string {
	db, err := s.db.Open(ctx)
	if err != nil {
		s.logger.Warn("load skipped: storage unavailable", slog.String("key", key), slog.Any("error", err))
		return []string{}
	}
	var values []string
	err = db.View(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
		meta, err := tx.Collection(ports.CollectionMetadata)
		if err != nil {
			return err
		}
		values, err = getIDs(meta, key)
		return err
	})
	if err != nil {
		s.logger.Warn("load failed", slog.String("key", key), slog.Any("error", err))
		return []string{}
	}
	return values
}

// RecentlyPlayedRepository implements ports.RecentlyPlayedRepository under
// "<email>_recently_played".
type RecentlyPlayedRepository struct {
	store listStore
}

// NewRecentlyPlayedRepository creates a recently played repository.
func NewRecentlyPlayedRepository(db ports.DatabaseOpener, logger *slog.Logger) *RecentlyPlayedRepository {
	return &RecentlyPlayedRepository{store: listStore{db: db, logger: logger}}
}

// SaveRecentlyPlayed overwrites the owner's list.
func (r *RecentlyPlayedRepository) SaveRecentlyPlayed(ctx context.Context, ids []string, ownerEmail string) bool {
	return r.store.save(ctx, ScopedKey(ownerEmail, KeyRecentlyPlayed), ids)
}

// LoadRecentlyPlayed returns the owner's list, most recent first.
func (r *RecentlyPlayedRepository) LoadRecentlyPlayed(ctx context.Context, ownerEmail string) []string {
	return r.store.load(ctx, ScopedKey(ownerEmail, KeyRecentlyPlayed))
}

// SearchHistoryRepository implements ports.SearchHistoryRepository under the
// global "search_history" key.
type SearchHistoryRepository struct {
	store listStore
}

// NewSearchHistoryRepository creates a search history repository.
func NewSearchHistoryRepository(db ports.DatabaseOpener, logger *slog.Logger) *SearchHistoryRepository {
	return &SearchHistoryRepository{store: listStore{db: db, logger: logger}}
}

// SaveSearchHistory overwrites the history.
func (r *SearchHistoryRepository) SaveSearchHistory(ctx context.Context, entries []string) bool {
	return r.store.save(ctx, KeySearchHistory, entries)
}

// LoadSearchHistory returns the history, most recent first.
func (r *SearchHistoryRepository) LoadSearchHistory(ctx context.Context) []string {
	return r.store.load(ctx, KeySearchHistory)
}

var (
	_ ports.RecentlyPlayedRepository = (*RecentlyPlayedRepository)(nil)
	_ ports.SearchHistoryRepository  = (*SearchHistoryRepository)(nil)
)
