package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_ReturnsFreshCopies(t *testing.T) {
	first := DefaultCatalog()
	require.Len(t, first, 4)

	first[0].Title = "changed"
	first[0].Lyrics[0].Text = "changed"

	second := DefaultCatalog()
	assert.Equal(t, "Starboy Remix", second[0].Title)
	assert.Equal(t, "I'm tryna put you in the worst mood, ah", second[0].Lyrics[0].Text)
	// Songs sharing a lyric sheet must not alias each other either.
	assert.Equal(t, "I'm tryna put you in the worst mood, ah", second[2].Lyrics[0].Text)
}

func TestFixedSongs(t *testing.T) {
	fixed := FixedSongs()

	require.Len(t, fixed, 4)
	for _, s := range fixed {
		assert.True(t, s.IsFixed, s.ID)
	}
}

func TestMergeFixed(t *testing.T) {
	stored := []Song{
		{ID: "u1", Title: "Upload"},
		{ID: "2", Title: "Stored copy of 2"},
	}

	merged := MergeFixed(stored, FixedSongs())

	ids := make([]string, len(merged))
	for i, s := range merged {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"u1", "2", "1", "3", "4"}, ids)
	assert.Equal(t, "Stored copy of 2", merged[1].Title)
}

func TestMergeFixed_Empty(t *testing.T) {
	assert.Empty(t, MergeFixed(nil, nil))
	assert.Len(t, MergeFixed(nil, FixedSongs()), 4)
}

func TestResolvedMetadata_ToSong(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		song := ResolvedMetadata{}.ToSong("x", 2026)

		assert.Equal(t, Song{
			ID:          "x",
			Title:       DefaultResolvedTitle,
			Artist:      DefaultArtist,
			Album:       DefaultResolvedAlbum,
			CoverURL:    DefaultCoverURL,
			AudioURL:    DefaultResolvedAudioURL,
			Duration:    DefaultDuration,
			Genre:       DefaultResolvedGenre,
			ReleaseYear: 2026,
		}, song)
	})

	t.Run("resolved values win", func(t *testing.T) {
		meta := ResolvedMetadata{Title: "Song", Artist: "Band", Album: "LP", Genre: "Blues", CoverURL: "https://c", AudioURL: "https://a.mp3", ReleaseYear: 1999}

		song := meta.ToSong("y", 2026)

		assert.Equal(t, "Song", song.Title)
		assert.Equal(t, "Band", song.Artist)
		assert.Equal(t, "LP", song.Album)
		assert.Equal(t, "Blues", song.Genre)
		assert.Equal(t, "https://c", song.CoverURL)
		assert.Equal(t, "https://a.mp3", song.AudioURL)
		assert.Equal(t, 1999, song.ReleaseYear)
	})

	t.Run("blank strings count as missing", func(t *testing.T) {
		song := ResolvedMetadata{Title: "   ", ReleaseYear: -3}.ToSong("z", 2026)

		assert.Equal(t, DefaultResolvedTitle, song.Title)
		assert.Equal(t, 2026, song.ReleaseYear)
	})
}

func TestResolvedMetadata_IsEmpty(t *testing.T) {
	assert.True(t, ResolvedMetadata{}.IsEmpty())
	assert.True(t, ResolvedMetadata{Lyrics: []LyricLine{{Text: "la"}}}.IsEmpty())
	assert.False(t, ResolvedMetadata{ReleaseYear: 2001}.IsEmpty())
	assert.False(t, ResolvedMetadata{Cover: &Payload{}}.IsEmpty())
}

func TestPlaylist_Contains(t *testing.T) {
	p := Playlist{SongIDs: []string{"1", "3"}}

	assert.True(t, p.Contains("3"))
	assert.False(t, p.Contains("2"))
	assert.False(t, Playlist{}.Contains(""))
}

func TestGuestProfile(t *testing.T) {
	p := GuestProfile("guest@vibemusic.app")

	assert.Equal(t, "guest@vibemusic.app", p.Email)
	assert.Equal(t, GuestName, p.Name)
	assert.Equal(t, DefaultProfileImage, p.ProfileImage)
	assert.False(t, p.IsLoggedIn)
}

func TestIsSupportedAudio(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"/music/Song.FLAC", true},
		{"voice.m4a", true},
		{"cover.jpg", false},
		{"notes", false},
		{".mp3.part", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSupportedAudio(tt.path), tt.path)
	}
}

func TestTitleFromFileName(t *testing.T) {
	assert.Equal(t, "My Song", TitleFromFileName("/tmp/inbox/My Song.mp3"))
	assert.Equal(t, "archive.tar", TitleFromFileName("archive.tar.gz"))
	assert.Equal(t, "plain", TitleFromFileName("plain"))
	assert.Equal(t, "", TitleFromFileName(".mp3"))
}

func TestErrors_Unwrap(t *testing.T) {
	repoErr := NewRepositoryError("load", "songs", "decode failed", ErrRecordNotFound)
	assert.ErrorIs(t, repoErr, ErrRecordNotFound)
	assert.Equal(t, "repository songs.load failed: decode failed: record not found", repoErr.Error())
	assert.Equal(t, "repository songs.open failed: boom", NewRepositoryError("open", "songs", "boom", nil).Error())

	svcErr := NewServiceError("LibraryService", "DeleteSong", "cannot delete", ErrFixedSong)
	wrapped := fmt.Errorf("cli: %w", svcErr)
	assert.ErrorIs(t, wrapped, ErrFixedSong)

	var target *ServiceError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "DeleteSong", target.Op)

	valErr := NewValidationError("email", "", "must not be empty")
	assert.Equal(t, "validation error for email: must not be empty (value: )", valErr.Error())
}

func TestEvents_Types(t *testing.T) {
	events := map[EventType]Event{
		EventLibraryLoaded:     NewLibraryLoadedEvent("a@x", 4, true),
		EventSongAdded:         NewSongAddedEvent(Song{ID: "1"}, "a@x"),
		EventSongDeleted:       NewSongDeletedEvent("1", "a@x"),
		EventSongPlayed:        NewSongPlayedEvent(Song{ID: "1"}),
		EventDownloadsChanged:  NewDownloadsChangedEvent([]string{"1"}),
		EventLyricsUpdated:     NewLyricsUpdatedEvent("1", 3),
		EventSessionChanged:    NewSessionChangedEvent(UserProfile{Email: "a@x"}, "guest"),
		EventPlaylistsChanged:  NewPlaylistsChangedEvent(nil),
		EventSearchRecorded:    NewSearchRecordedEvent("q", []string{"q"}),
		EventAutosaveCompleted: NewAutosaveCompletedEvent("a@x", true),
		EventImportFailed:      NewImportFailedEvent("/tmp/x.mp3", ErrUnsupportedFormat),
	}
	for want, event := range events {
		assert.Equal(t, want, event.Type())
		assert.False(t, event.Timestamp().IsZero(), want)
	}
}
