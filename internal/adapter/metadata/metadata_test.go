package metadata

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/blob"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
)

// id3v23 builds a minimal ID3v2.3 tag with Latin-1 text frames.
func id3v23(frames map[string]string) []byte {
	var body []byte
	for _, id := range []string{"TIT2", "TPE1", "TALB", "TCON", "TYER"} {
		text, ok := frames[id]
		if !ok {
			continue
		}
		data := append([]byte{0x00}, text...)
		header := make([]byte, 10)
		copy(header, id)
		binary.BigEndian.PutUint32(header[4:8], uint32(len(data)))
		body = append(body, header...)
		body = append(body, data...)
	}

	size := len(body)
	tag := []byte{'I', 'D', '3', 3, 0, 0,
		byte(size>>21&0x7f), byte(size>>14&0x7f), byte(size>>7&0x7f), byte(size&0x7f)}
	return append(tag, body...)
}

func TestTagReader_ReadFile(t *testing.T) {
	registry := blob.NewRegistry(logger.NewTestLogger())
	reader := NewTagReader(registry, logger.NewTestLogger())

	handle := registry.Register(id3v23(map[string]string{
		"TIT2": "Blinding Lights",
		"TPE1": "The Weeknd",
		"TALB": "After Hours",
		"TCON": "Party",
		"TYER": "2020",
	}), "audio/mpeg")

	meta, err := reader.ReadFile(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, "Blinding Lights", meta.Title)
	assert.Equal(t, "The Weeknd", meta.Artist)
	assert.Equal(t, "After Hours", meta.Album)
	assert.Equal(t, "Party", meta.Genre)
	assert.Equal(t, 2020, meta.ReleaseYear)
	assert.Nil(t, meta.Cover)
}

func TestTagReader_NoTags(t *testing.T) {
	reader := NewTagReader(blob.NewRegistry(logger.NewTestLogger()), logger.NewTestLogger())

	_, err := reader.Read([]byte("definitely not an audio file"))
	assert.ErrorIs(t, err, domain.ErrNoMetadata)
}

func TestTagReader_UnknownHandle(t *testing.T) {
	reader := NewTagReader(blob.NewRegistry(logger.NewTestLogger()), logger.NewTestLogger())

	_, err := reader.ReadFile(context.Background(), "blob:vibemusic/none")
	assert.ErrorIs(t, err, domain.ErrHandleNotFound)
}

func TestParseLRC(t *testing.T) {
	lines := ParseLRC("[ti:Song]\n[00:12.50] second\nplain line\n[00:04] first\n[01:00]third")

	require.Len(t, lines, 3)
	assert.Equal(t, domain.LyricLine{Time: 4, Text: "first"}, lines[0])
	assert.Equal(t, domain.LyricLine{Time: 12.5, Text: "second"}, lines[1])
	assert.Equal(t, domain.LyricLine{Time: 60, Text: "third"}, lines[2])
	assert.Empty(t, ParseLRC(""))
}

func newTestServer(t *testing.T, body string, status int) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("q"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteResolver_Resolve(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.Query().Get("q")
		_, _ = w.Write([]byte("Here you go:\n```json\n{\"title\":\"Starboy\",\"artist\":\"The Weeknd\",\"audioUrl\":\" https://cdn.example/starboy.mp3 \",\"releaseYear\":\"2016\"}\n```"))
	}))
	defer srv.Close()

	r := NewRemoteResolver(srv.URL+"/", nil, logger.NewTestLogger())
	meta, err := r.Resolve(context.Background(), "track 42")
	require.NoError(t, err)

	assert.Equal(t, "/resolve", gotPath)
	assert.Equal(t, "track 42", gotQuery)
	assert.Equal(t, "Starboy", meta.Title)
	assert.Equal(t, "The Weeknd", meta.Artist)
	assert.Equal(t, 2016, meta.ReleaseYear)
	assert.Equal(t, "https://cdn.example/starboy.mp3", meta.AudioURL)

	song := meta.ToSong("42", 2026)
	assert.Equal(t, domain.DefaultResolvedAlbum, song.Album)
	assert.Equal(t, domain.DefaultResolvedGenre, song.Genre)
	assert.Equal(t, domain.DefaultDuration, song.Duration)
	assert.Equal(t, 2016, song.ReleaseYear)
	assert.Equal(t, "https://cdn.example/starboy.mp3", song.AudioURL)
}

func TestRemoteResolver_ResolveMalformed(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", "sorry, I could not find that", http.StatusOK},
		{"broken json", "{\"title\": ", http.StatusOK},
		{"empty object", "{}", http.StatusOK},
		{"server error", "{\"title\":\"x\"}", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.body, tt.status)
			_, err := NewRemoteResolver(srv.URL, nil, logger.NewTestLogger()).Resolve(context.Background(), "x")
			assert.ErrorIs(t, err, domain.ErrNoMetadata)
		})
	}
}

func TestRemoteResolver_Search(t *testing.T) {
	srv := newTestServer(t, `Results: [{"title":"A","releaseYear":2002},{"title":""},{"artist":"B"}] done`, http.StatusOK)

	results, err := NewRemoteResolver(srv.URL, nil, logger.NewTestLogger()).Search(context.Background(), "lofi")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Title)
	assert.Equal(t, 2002, results[0].ReleaseYear)
	assert.Equal(t, "B", results[1].Artist)
}

func TestRemoteResolver_SearchMalformedIsEmpty(t *testing.T) {
	srv := newTestServer(t, "no results", http.StatusOK)

	results, err := NewRemoteResolver(srv.URL, nil, logger.NewTestLogger()).Search(context.Background(), "lofi")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRemoteResolver_Disabled(t *testing.T) {
	r := NewRemoteResolver("", nil, logger.NewTestLogger())

	_, err := r.Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNoMetadata)
	_, err = r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}
