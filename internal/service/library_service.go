package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// sessionInfo is the part of the session the library needs.
type sessionInfo interface {
	Email() string
	IsAdmin() bool
}

// LibraryDependencies groups the collaborators of LibraryService.
// Tags and Resolver are optional.
type LibraryDependencies struct {
	Songs    ports.SongRepository
	Recents  ports.RecentlyPlayedRepository
	History  ports.SearchHistoryRepository
	Codec    ports.BlobCodec
	Tags     ports.FileMetadataReader
	Resolver ports.MetadataResolver
	Bus      ports.EventBus
}

// LibraryOptions tunes list caps and injects time and id sources.
type LibraryOptions struct {
	RecentlyPlayedLimit int
	SearchHistoryLimit  int
	Clock               func() time.Time
	NewID               func() string
}

// DefaultLibraryOptions returns the stock limits (10 recents, 5 searches).
func DefaultLibraryOptions() LibraryOptions {
	return LibraryOptions{
		RecentlyPlayedLimit: 10,
		SearchHistoryLimit:  5,
		Clock:               time.Now,
		NewID:               uuid.NewString,
	}
}

// UploadRequest describes a user-picked audio file.
// Empty text fields are filled from embedded tags, then from defaults.
type UploadRequest struct {
	FileName      string
	Data          []byte
	MIMEType      string
	Title         string
	Artist        string
	Genre         string
	Cover         []byte
	CoverMIMEType string
}

// Query filters the library. Empty or "All" genre/year match everything.
type Query struct {
	Text  string
	Genre string
	Year  string
}

// LibraryService holds the in-memory library of the signed-in owner and
// writes it through the song repository.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	session sessionInfo
	deps    LibraryDependencies
	opts    LibraryOptions

	// State
	owner      string
	songs      []domain.Song
	downloaded map[string]bool
	recent     []string
	history    []string
	currentID  string

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	logger *slog.Logger,
	session sessionInfo,
	deps LibraryDependencies,
	opts LibraryOptions,
) *LibraryService {
	defaults := DefaultLibraryOptions()
	if opts.RecentlyPlayedLimit <= 0 {
		opts.RecentlyPlayedLimit = defaults.RecentlyPlayedLimit
	}
	if opts.SearchHistoryLimit <= 0 {
		opts.SearchHistoryLimit = defaults.SearchHistoryLimit
	}
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}
	if opts.NewID == nil {
		opts.NewID = defaults.NewID
	}

	return &LibraryService{
		logger:     logger,
		session:    session,
		deps:       deps,
		opts:       opts,
		downloaded: make(map[string]bool),
	}
}

// Boot hydrates the library for the current session, loads the global search
// history and, when linkedSongID is set, opens that song (resolving it
// remotely if it is not in the library).
func (s *LibraryService) Boot(ctx context.Context, linkedSongID string) error {
	s.Hydrate(ctx)

	history := s.deps.History.LoadSearchHistory(ctx)
	s.mu.Lock()
	s.history = history
	s.mu.Unlock()

	if linkedSongID == "" {
		return nil
	}
	if _, err := s.ResolveLink(ctx, linkedSongID); err != nil {
		return fmt.Errorf("open linked song %q: %w", linkedSongID, err)
	}
	return nil
}

// Hydrate replaces the in-memory library with the session owner's stored
// songs and recently played list. On a fresh install the default catalog is
// seeded; fixed songs are always merged back in.
func (s *LibraryService) Hydrate(ctx context.Context) {
	owner := s.session.Email()

	stored := s.deps.Songs.LoadSongs(ctx, owner)
	recents := s.deps.Recents.LoadRecentlyPlayed(ctx, owner)

	seeded := false
	if len(stored) == 0 && !s.deps.Songs.IsInitialized(ctx) {
		stored = domain.DefaultCatalog()
		seeded = s.deps.Songs.SaveSongs(ctx, stored, owner)
	}
	songs := domain.MergeFixed(stored, domain.FixedSongs())

	downloaded := make(map[string]bool)
	for _, song := range songs {
		if song.IsDownloaded {
			downloaded[song.ID] = true
		}
	}

	s.mu.Lock()
	previous := s.songs
	s.owner = owner
	s.songs = songs
	s.recent = recents
	s.downloaded = downloaded
	s.currentID = ""
	if len(songs) > 0 {
		s.currentID = songs[0].ID
	}
	s.mu.Unlock()
	s.releaseHandles(previous, songs)

	s.logger.Info("library loaded",
		slog.String("owner", owner),
		slog.Int("songs", len(songs)),
		slog.Bool("seeded", seeded))
	s.deps.Bus.Publish(domain.NewLibraryLoadedEvent(owner, len(songs), seeded))
}

// ResolveLink makes songID the current song, resolving and adding it first
// when it is not in the library.
func (s *LibraryService) ResolveLink(ctx context.Context, songID string) (domain.Song, error) {
	if song, ok := s.Song(songID); ok {
		s.setCurrent(songID)
		return song, nil
	}
	if s.deps.Resolver == nil {
		return domain.Song{}, domain.ErrSongNotFound
	}

	meta, err := s.deps.Resolver.Resolve(ctx, songID)
	if err != nil {
		return domain.Song{}, domain.NewServiceError("LibraryService", "ResolveLink", "song could not be resolved", err)
	}
	return s.add(ctx, meta.ToSong(songID, s.opts.Clock().Year())), nil
}

// AddSong prepends song to the library, makes it current and saves.
// Songs added by the admin become fixed.
func (s *LibraryService) AddSong(ctx context.Context, song domain.Song) (domain.Song, error) {
	if strings.TrimSpace(song.ID) == "" {
		return domain.Song{}, domain.NewValidationError("id", song.ID, "song id is required")
	}
	return s.add(ctx, song), nil
}

// AddResolved adds a global search result to the library.
func (s *LibraryService) AddResolved(ctx context.Context, meta domain.ResolvedMetadata) domain.Song {
	return s.add(ctx, meta.ToSong("global-"+s.opts.NewID(), s.opts.Clock().Year()))
}

func (s *LibraryService) add(ctx context.Context, song domain.Song) domain.Song {
	if s.session.IsAdmin() {
		song.IsFixed = true
	}

	s.mu.Lock()
	s.songs = slices.DeleteFunc(s.songs, func(existing domain.Song) bool { return existing.ID == song.ID })
	s.songs = append([]domain.Song{song}, s.songs...)
	s.currentID = song.ID
	owner, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, owner, snapshot)
	s.deps.Bus.Publish(domain.NewSongAddedEvent(song, owner))
	return song
}

// Upload registers the picked file (and optional cover) as transient
// handles, reads embedded tags and adds the resulting song. The audio payload
// is captured when the library is saved.
func (s *LibraryService) Upload(ctx context.Context, req UploadRequest) (domain.Song, error) {
	if len(req.Data) == 0 {
		return domain.Song{}, domain.NewValidationError("data", req.FileName, "audio file is empty")
	}

	audioRef := s.deps.Codec.Regenerate(domain.Payload{Data: req.Data, MIMEType: req.MIMEType})

	var meta domain.ResolvedMetadata
	if s.deps.Tags != nil {
		m, err := s.deps.Tags.ReadFile(ctx, audioRef)
		switch {
		case err == nil:
			meta = m
		case !errors.Is(err, domain.ErrNoMetadata):
			s.logger.Warn("tag read failed", slog.String("file", req.FileName), slog.Any("error", err))
		}
	}

	cover := domain.DefaultUploadCoverURL
	switch {
	case len(req.Cover) > 0:
		cover = s.deps.Codec.Regenerate(domain.Payload{Data: req.Cover, MIMEType: req.CoverMIMEType})
	case meta.Cover != nil:
		cover = s.deps.Codec.Regenerate(*meta.Cover)
	}

	song := domain.Song{
		ID:          s.opts.NewID(),
		Title:       pick(req.Title, meta.Title, domain.TitleFromFileName(req.FileName), domain.DefaultUploadTitle),
		Artist:      pick(req.Artist, meta.Artist, domain.DefaultArtist),
		Album:       domain.DefaultUploadAlbum,
		CoverURL:    cover,
		AudioURL:    audioRef,
		Duration:    domain.DefaultDuration,
		Genre:       pick(req.Genre, meta.Genre, domain.DefaultUploadGenre),
		ReleaseYear: s.opts.Clock().Year(),
		Lyrics:      meta.Lyrics,
	}
	return s.add(ctx, song), nil
}

// ImportFile uploads an audio file from disk.
func (s *LibraryService) ImportFile(ctx context.Context, path string) (domain.Song, error) {
	if !domain.IsSupportedAudio(path) {
		return domain.Song{}, fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Song{}, domain.NewServiceError("LibraryService", "ImportFile", "cannot read file", err)
	}
	return s.Upload(ctx, UploadRequest{FileName: filepath.Base(path), Data: data})
}

// DeleteSong removes a song. Fixed songs cannot be deleted.
func (s *LibraryService) DeleteSong(ctx context.Context, songID string) error {
	s.mu.Lock()
	idx := s.indexLocked(songID)
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrSongNotFound
	}
	if s.songs[idx].IsFixed {
		s.mu.Unlock()
		return domain.NewServiceError("LibraryService", "DeleteSong", "song is part of the fixed catalog", domain.ErrFixedSong)
	}

	removed := s.songs[idx]
	s.songs = slices.Delete(s.songs, idx, idx+1)
	delete(s.downloaded, songID)
	if s.currentID == songID {
		s.currentID = ""
		if len(s.songs) > 0 {
			s.currentID = s.songs[0].ID
		}
	}
	owner, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, owner, snapshot)
	s.releaseHandles([]domain.Song{removed}, snapshot)
	s.deps.Bus.Publish(domain.NewSongDeletedEvent(songID, owner))
	return nil
}

// ToggleDownload flips the offline flag of a song and returns the new value.
// The change is persisted by the next flush.
func (s *LibraryService) ToggleDownload(songID string) (bool, error) {
	s.mu.Lock()
	if s.indexLocked(songID) == -1 {
		s.mu.Unlock()
		return false, domain.ErrSongNotFound
	}
	now := !s.downloaded[songID]
	if now {
		s.downloaded[songID] = true
	} else {
		delete(s.downloaded, songID)
	}
	ids := s.downloadedIDsLocked()
	s.mu.Unlock()

	s.deps.Bus.Publish(domain.NewDownloadsChangedEvent(ids))
	return now, nil
}

// DownloadAll marks every song as downloaded.
func (s *LibraryService) DownloadAll() {
	s.mu.Lock()
	for _, song := range s.songs {
		s.downloaded[song.ID] = true
	}
	ids := s.downloadedIDsLocked()
	s.mu.Unlock()

	s.deps.Bus.Publish(domain.NewDownloadsChangedEvent(ids))
}

// IsAllDownloaded reports whether every song is available offline.
func (s *LibraryService) IsAllDownloaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, song := range s.songs {
		if !s.downloaded[song.ID] {
			return false
		}
	}
	return true
}

// Songs returns the library with download status applied. In offline mode
// only downloaded songs are returned.
func (s *LibraryService) Songs(offline bool) []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Song, 0, len(s.songs))
	for _, song := range s.songs {
		song.IsDownloaded = s.downloaded[song.ID]
		if offline && !song.IsDownloaded {
			continue
		}
		out = append(out, song)
	}
	return out
}

// Song returns one song with its download status.
func (s *LibraryService) Song(songID string) (domain.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(songID)
	if idx == -1 {
		return domain.Song{}, false
	}
	song := s.songs[idx]
	song.IsDownloaded = s.downloaded[songID]
	return song, true
}

// Current returns the current song, if any.
func (s *LibraryService) Current() (domain.Song, bool) {
	s.mu.RLock()
	id := s.currentID
	s.mu.RUnlock()
	return s.Song(id)
}

func (s *LibraryService) setCurrent(songID string) {
	s.mu.Lock()
	s.currentID = songID
	s.mu.Unlock()
}

// PlaySong makes songID current and moves it to the front of the recently
// played list, which is capped and saved immediately.
func (s *LibraryService) PlaySong(ctx context.Context, songID string) (domain.Song, error) {
	song, ok := s.Song(songID)
	if !ok {
		return domain.Song{}, domain.ErrSongNotFound
	}

	s.mu.Lock()
	s.currentID = songID
	s.recent = prependUnique(s.recent, songID, s.opts.RecentlyPlayedLimit, func(a, b string) bool { return a == b })
	recent := slices.Clone(s.recent)
	owner := s.owner
	s.mu.Unlock()

	if !s.deps.Recents.SaveRecentlyPlayed(ctx, recent, owner) {
		s.logger.Warn("recently played not saved", slog.String("owner", owner))
	}
	s.deps.Bus.Publish(domain.NewSongPlayedEvent(song))
	return song, nil
}

// RecentlyPlayed returns recently played songs, newest first. Ids no longer
// in the library are skipped.
func (s *LibraryService) RecentlyPlayed() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Song, 0, len(s.recent))
	for _, id := range s.recent {
		if idx := s.indexLocked(id); idx != -1 {
			song := s.songs[idx]
			song.IsDownloaded = s.downloaded[id]
			out = append(out, song)
		}
	}
	return out
}

// Search filters the library by text (title, artist or genre contains,
// case-insensitive), genre and release year.
func (s *LibraryService) Search(q Query) []domain.Song {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	var out []domain.Song
	for _, song := range s.Songs(false) {
		if text != "" &&
			!strings.Contains(strings.ToLower(song.Title), text) &&
			!strings.Contains(strings.ToLower(song.Artist), text) &&
			!strings.Contains(strings.ToLower(song.Genre), text) {
			continue
		}
		if !matchesAll(q.Genre) && song.Genre != q.Genre {
			continue
		}
		if !matchesAll(q.Year) && strconv.Itoa(song.ReleaseYear) != q.Year {
			continue
		}
		out = append(out, song)
	}
	if out == nil {
		return []domain.Song{}
	}
	return out
}

// GlobalSearch asks the metadata resolver for tracks outside the library.
func (s *LibraryService) GlobalSearch(ctx context.Context, query string) ([]domain.ResolvedMetadata, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.ResolvedMetadata{}, domain.ErrEmptyQuery
	}
	if s.deps.Resolver == nil {
		return []domain.ResolvedMetadata{}, domain.ErrNoMetadata
	}
	return s.deps.Resolver.Search(ctx, query)
}

// RecordSearch prepends query to the global search history, dropping
// case-insensitive duplicates, and saves it.
func (s *LibraryService) RecordSearch(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.SearchHistory()
	}

	s.mu.Lock()
	s.history = prependUnique(s.history, query, s.opts.SearchHistoryLimit, strings.EqualFold)
	history := slices.Clone(s.history)
	s.mu.Unlock()

	if !s.deps.History.SaveSearchHistory(ctx, history) {
		s.logger.Warn("search history not saved")
	}
	s.deps.Bus.Publish(domain.NewSearchRecordedEvent(query, history))
	return history
}

// SearchHistory returns recent searches, newest first.
func (s *LibraryService) SearchHistory() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.history == nil {
		return []string{}
	}
	return slices.Clone(s.history)
}

// SaveLyrics replaces a song's lyrics (sorted by time) and saves.
func (s *LibraryService) SaveLyrics(ctx context.Context, songID string, lines []domain.LyricLine) error {
	sorted := slices.Clone(lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	s.mu.Lock()
	idx := s.indexLocked(songID)
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrSongNotFound
	}
	s.songs[idx].Lyrics = sorted
	owner, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, owner, snapshot)
	s.deps.Bus.Publish(domain.NewLyricsUpdatedEvent(songID, len(sorted)))
	return nil
}

// Genres returns "All" followed by each genre in the library, in order of
// first appearance.
func (s *LibraryService) Genres() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genres := []string{domain.AllFilter}
	seen := map[string]bool{domain.AllFilter: true}
	for _, song := range s.songs {
		if !seen[song.Genre] {
			seen[song.Genre] = true
			genres = append(genres, song.Genre)
		}
	}
	return genres
}

// Owner returns the email the loaded library belongs to.
func (s *LibraryService) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Flush saves songs (with download status) and the recently played list for
// the loaded owner.
func (s *LibraryService) Flush(ctx context.Context) bool {
	s.mu.RLock()
	owner, snapshot := s.snapshotLocked()
	recent := slices.Clone(s.recent)
	s.mu.RUnlock()

	if owner == "" {
		return true
	}
	songsOK := s.deps.Songs.SaveSongs(ctx, snapshot, owner)
	recentOK := s.deps.Recents.SaveRecentlyPlayed(ctx, recent, owner)
	return songsOK && recentOK
}

func (s *LibraryService) persist(ctx context.Context, owner string, songs []domain.Song) {
	if owner == "" {
		return
	}
	if !s.deps.Songs.SaveSongs(ctx, songs, owner) {
		s.logger.Warn("library not saved", slog.String("owner", owner))
	}
}

// snapshotLocked copies the songs with download status applied.
// Must be called with s.mu held.
func (s *LibraryService) snapshotLocked() (string, []domain.Song) {
	out := make([]domain.Song, len(s.songs))
	for i, song := range s.songs {
		song.IsDownloaded = s.downloaded[song.ID]
		out[i] = song
	}
	return s.owner, out
}

func (s *LibraryService) indexLocked(songID string) int {
	return slices.IndexFunc(s.songs, func(song domain.Song) bool { return song.ID == songID })
}

func (s *LibraryService) downloadedIDsLocked() []string {
	ids := make([]string, 0, len(s.downloaded))
	for _, song := range s.songs {
		if s.downloaded[song.ID] {
			ids = append(ids, song.ID)
		}
	}
	return ids
}

// prependUnique puts v first, removes entries equal to it and caps the list.
func prependUnique(list []string, v string, limit int, equal func(a, b string) bool) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, v)
	for _, item := range list {
		if !equal(item, v) {
			out = append(out, item)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesAll(filter string) bool {
	return filter == "" || filter == domain.AllFilter
}

func pick(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// releaseHandles revokes the transient references of dropped songs that no
// song in kept still points at. Stored payloads are unaffected.
func (s *LibraryService) releaseHandles(dropped, kept []domain.Song) {
	inUse := make(map[string]bool, 2*len(kept))
	for _, song := range kept {
		inUse[song.AudioURL] = true
		inUse[song.CoverURL] = true
	}
	released := 0
	for _, song := range dropped {
		for _, ref := range []string{song.AudioURL, song.CoverURL} {
			if inUse[ref] || !s.deps.Codec.IsTransient(ref) {
				continue
			}
			inUse[ref] = true
			s.deps.Codec.Revoke(ref)
			released++
		}
	}
	if released > 0 {
		s.logger.Debug("handles released", slog.Int("count", released))
	}
}
